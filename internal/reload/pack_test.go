package reload

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
	"github.com/Iron-Ham/hookbus/internal/testutil"
)

func memPack(t *testing.T, files map[string]string) *Pack {
	t.Helper()
	p, err := OpenPack(testutil.MemPack(t, "/pack", files), "/pack")
	if err != nil {
		t.Fatalf("OpenPack: %v", err)
	}
	return p
}

func TestOpenPack_Missing(t *testing.T) {
	_, err := OpenPack(afero.NewMemMapFs(), "/nope")
	if !errors.Is(err, errs.ErrPackNotFound) {
		t.Errorf("OpenPack() error = %v, want ErrPackNotFound", err)
	}
}

func TestPack_List(t *testing.T) {
	p := memPack(t, map[string]string{
		"chat/filter.yaml":    "words: [x]",
		"blocks/protect.toml": "blocks = []",
		"greeting.yml":        "text: hi",
		"README.md":           "ignored",
		".hidden.yaml":        "ignored: true",
		".git/config.toml":    "ignored = true",
		"overlay/banner.YAML": "text: upper",
	})

	got, err := p.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"blocks/protect.toml", "chat/filter.yaml", "greeting.yml", "overlay/banner.YAML"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPack_Load(t *testing.T) {
	p := memPack(t, map[string]string{
		"chat/filter.yaml":    "replacement: '***'\nwords:\n  - darn\n  - heck\n",
		"blocks/protect.toml": "blocks = [\"bedrock\", \"spawner\"]\n\n[region]\nradius = 16\n",
		"broken.yaml":         "words: [unterminated",
		"empty.toml":          "",
	})

	t.Run("yaml", func(t *testing.T) {
		res, err := p.Load("chat/filter.yaml")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if res.Format != FormatYAML || res.Path != "chat/filter.yaml" {
			t.Errorf("Load() = %+v", res)
		}
		words, ok := res.Data["words"].([]any)
		if !ok || len(words) != 2 || words[0] != "darn" {
			t.Errorf("words = %#v", res.Data["words"])
		}
	})

	t.Run("toml", func(t *testing.T) {
		res, err := p.Load("blocks/protect.toml")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		region, ok := res.Data["region"].(map[string]any)
		if !ok || region["radius"] != int64(16) {
			t.Errorf("region = %#v", res.Data["region"])
		}
	})

	t.Run("empty", func(t *testing.T) {
		res, err := p.Load("empty.toml")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if res.Data == nil || len(res.Data) != 0 {
			t.Errorf("Data = %#v, want empty map", res.Data)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := p.Load("broken.yaml")
		if !errors.Is(err, errs.ErrInvalidResource) {
			t.Errorf("Load() error = %v, want ErrInvalidResource", err)
		}
		var rerr *errs.ResourceError
		if !errors.As(err, &rerr) || rerr.Path != "broken.yaml" {
			t.Errorf("Load() error = %#v, want ResourceError with path", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := p.Load("nope.yaml"); err == nil {
			t.Error("Load() error = nil for missing file")
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if _, err := p.Load("notes.txt"); !errors.Is(err, errs.ErrUnsupportedFormat) {
			t.Errorf("Load() error = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"a.yaml", FormatYAML, false},
		{"a.yml", FormatYAML, false},
		{"dir/a.TOML", FormatTOML, false},
		{"a.json", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatOf(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatOf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatOf() = %q, want %q", got, tt.want)
			}
		})
	}
}
