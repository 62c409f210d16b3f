package validation

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-service/internal/apperr"
)

func makeFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func glbPayload() []byte {
	return append([]byte{0x67, 0x6C, 0x54, 0x46}, []byte("rest of the container")...)
}

func TestValidateGLB(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  bool
	}{
		{"valid glb", "model.glb", glbPayload(), false},
		{"uppercase extension", "MODEL.GLB", glbPayload(), false},
		{"wrong extension", "model.fbx", glbPayload(), true},
		{"no extension", "model", glbPayload(), true},
		{"corrupt header", "model.glb", []byte("JSON{not a glb}"), true},
		{"empty file", "model.glb", nil, true},
		{"header too short", "model.glb", []byte{0x67, 0x6C}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fh := makeFileHeader(t, tt.filename, tt.content)
			err := ValidateGLB(fh)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperr.KindInvalidFormat, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateGLBDistinguishesMessages(t *testing.T) {
	extErr := ValidateGLB(makeFileHeader(t, "model.obj", glbPayload()))
	headerErr := ValidateGLB(makeFileHeader(t, "model.glb", []byte("bogus bytes")))

	require.Error(t, extErr)
	require.Error(t, headerErr)
	assert.NotEqual(t, apperr.MessageOf(extErr), apperr.MessageOf(headerErr))
}

func TestValidateGLBBytes(t *testing.T) {
	assert.NoError(t, ValidateGLBBytes(glbPayload(), "staged.glb"))
	assert.Error(t, ValidateGLBBytes(glbPayload(), "staged.zip"))
	assert.Error(t, ValidateGLBBytes([]byte{0x01, 0x02, 0x03, 0x04}, "staged.glb"))
	assert.Error(t, ValidateGLBBytes(nil, "staged.glb"))
}
