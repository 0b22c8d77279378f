package manifest

import (
	"github.com/beevik/etree"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// XML rewrites the version attribute of the root element, as in Cordova config.xml
// (<widget version="1.2.3">).
type XML struct{}

var _ interfaces.ManifestRewriter = XML{}

// NewXML creates an XML rewriter
func NewXML() XML { return XML{} }

func readRoot(data []byte) (*etree.Document, *etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, nil, goerr.Wrap(err, "manifest is not valid XML")
	}
	root := doc.Root()
	if root == nil {
		return nil, nil, goerr.New("manifest has no root element")
	}
	return doc, root, nil
}

// CurrentVersion returns the root element's version attribute
func (XML) CurrentVersion(data []byte) (string, error) {
	_, root, err := readRoot(data)
	if err != nil {
		return "", err
	}

	attr := root.SelectAttr(versionKey)
	if attr == nil {
		return "", goerr.New("manifest root has no version attribute", goerr.V("root", root.Tag))
	}
	return attr.Value, nil
}

// SetVersion sets the root element's version attribute
func (XML) SetVersion(data []byte, version string) ([]byte, error) {
	doc, root, err := readRoot(data)
	if err != nil {
		return nil, err
	}

	if attr := root.SelectAttr(versionKey); attr != nil && attr.Value == version {
		return data, nil
	}

	root.CreateAttr(versionKey, version)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to serialize manifest")
	}
	return out, nil
}
