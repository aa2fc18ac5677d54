package render

import (
	"context"
	"testing"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"json", "svg", "png", "pdf"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v, want nil", f, err)
		}
	}
	for _, f := range []string{"", "SVG", "gif", "dot"} {
		if err := ValidateFormat(f); !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) = %v, want INVALID_FORMAT", f, err)
		}
	}
}

func TestConvertWithoutRsvg(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"/>`)

	if _, err := ToPDF(context.Background(), svg); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPDF() = %v, want UNSUPPORTED", err)
	}
	if _, err := ToPNG(context.Background(), svg, 0); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPNG() = %v, want UNSUPPORTED", err)
	}
}
