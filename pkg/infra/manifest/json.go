package manifest

import (
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const versionKey = "version"

// JSON rewrites the top-level "version" field of JSON manifests such as package.json.
// Only the bytes of the version value change; key order, indentation and the other
// fields are kept as they are.
type JSON struct{}

var _ interfaces.ManifestRewriter = JSON{}

// NewJSON creates a JSON rewriter
func NewJSON() JSON { return JSON{} }

// CurrentVersion returns the top-level version string
func (JSON) CurrentVersion(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", goerr.New("manifest is not valid JSON")
	}

	v := gjson.GetBytes(data, versionKey)
	if !v.Exists() {
		return "", goerr.New("manifest has no version field")
	}
	if v.Type != gjson.String {
		return "", goerr.New("manifest version is not a string", goerr.V("raw", v.Raw))
	}
	return v.String(), nil
}

// SetVersion replaces the top-level version, adding it when missing
func (j JSON) SetVersion(data []byte, version string) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, goerr.New("manifest is not valid JSON")
	}
	if current := gjson.GetBytes(data, versionKey); current.Type == gjson.String && current.String() == version {
		return data, nil
	}

	src := make([]byte, len(data))
	copy(src, data)
	updated, err := sjson.SetBytes(src, versionKey, version)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to set version", goerr.V("version", version))
	}
	return updated, nil
}
