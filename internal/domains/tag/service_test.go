package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloggy-backend/internal/domains/tag/model"
)

func TestNormalize(t *testing.T) {
	svc := NewService(nil).(*service)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain lowercase", input: "golang", want: "golang"},
		{name: "mixed case lowered", input: "GoLang", want: "golang"},
		{name: "all caps lowered", input: "NEWS", want: "news"},
		{name: "digits rejected", input: "tag2", wantErr: true},
		{name: "dashes rejected", input: "go-lang", wantErr: true},
		{name: "underscores rejected", input: "go_lang", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "spaces rejected", input: "go lang", wantErr: true},
		{name: "unicode rejected", input: "gø", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Normalize(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidTagName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
