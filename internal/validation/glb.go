package validation

import (
	"bytes"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"warehouse-service/internal/apperr"
)

// glbMagic is the GLB container header: ASCII "glTF" (0x46546C67 little-endian).
var glbMagic = []byte{0x67, 0x6C, 0x54, 0x46}

const (
	msgWrongExtension = "file must be GLB format"
	msgBadHeader      = "invalid GLB file"
)

// ValidateGLB checks that an uploaded file is a GLB asset: the extension must
// be .glb and the first four bytes must carry the GLB magic number. Only the
// header is read; the file handle is closed on every path.
func ValidateGLB(fileHeader *multipart.FileHeader) error {
	if !hasGLBExtension(fileHeader.Filename) {
		return apperr.New(apperr.KindInvalidFormat, msgWrongExtension)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return apperr.Wrap(errors.Wrap(err, "open uploaded file"), apperr.KindStorage, "could not read uploaded file")
	}
	defer f.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		return apperr.New(apperr.KindInvalidFormat, msgBadHeader)
	}
	if !bytes.Equal(header, glbMagic) {
		return apperr.New(apperr.KindInvalidFormat, msgBadHeader)
	}
	return nil
}

// ValidateGLBBytes applies the same checks to an in-memory artifact, e.g. a
// staged generation result being adopted into a permanent item.
func ValidateGLBBytes(data []byte, filename string) error {
	if !hasGLBExtension(filename) {
		return apperr.New(apperr.KindInvalidFormat, msgWrongExtension)
	}
	if len(data) < 4 || !bytes.Equal(data[:4], glbMagic) {
		return apperr.New(apperr.KindInvalidFormat, msgBadHeader)
	}
	return nil
}

func hasGLBExtension(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".glb"
}
