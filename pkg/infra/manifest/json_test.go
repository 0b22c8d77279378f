package manifest_test

import (
	"testing"

	"github.com/m-mizutani/gitflow-release/pkg/infra/manifest"
	"github.com/m-mizutani/gt"
)

func TestJSON_CurrentVersion(t *testing.T) {
	rw := manifest.NewJSON()

	v, err := rw.CurrentVersion([]byte(`{"name":"app","version":"1.3.9"}`))
	gt.NoError(t, err)
	gt.Value(t, v).Equal("1.3.9")

	for _, data := range []string{`{"name":"app"}`, `{"version":139}`, `{"version":`} {
		_, err := rw.CurrentVersion([]byte(data))
		gt.Error(t, err)
	}
}

func TestJSON_SetVersion(t *testing.T) {
	rw := manifest.NewJSON()
	src := []byte("{\n\t\"version\": \"1.3.9\",\n\t\"nested\": {\"version\": \"0.0.1\"}\n}\n")

	out, err := rw.SetVersion(src, "1.4.0")
	gt.NoError(t, err)
	gt.Value(t, string(out)).Equal("{\n\t\"version\": \"1.4.0\",\n\t\"nested\": {\"version\": \"0.0.1\"}\n}\n")

	// the input is not modified
	gt.Value(t, string(src)).Equal("{\n\t\"version\": \"1.3.9\",\n\t\"nested\": {\"version\": \"0.0.1\"}\n}\n")

	again, err := rw.SetVersion(out, "1.4.0")
	gt.NoError(t, err)
	gt.Value(t, string(again)).Equal(string(out))
}

func TestJSON_SetVersion_AddsMissingField(t *testing.T) {
	out, err := manifest.NewJSON().SetVersion([]byte(`{"name":"app"}`), "0.1.0")
	gt.NoError(t, err)

	v, err := manifest.NewJSON().CurrentVersion(out)
	gt.NoError(t, err)
	gt.Value(t, v).Equal("0.1.0")
}

func TestJSON_SetVersion_Invalid(t *testing.T) {
	_, err := manifest.NewJSON().SetVersion([]byte(`not json`), "1.0.0")
	gt.Error(t, err)
}
