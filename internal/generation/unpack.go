package generation

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

// NamedFile is one extracted archive member held in memory.
type NamedFile struct {
	Name string
	Data []byte
}

// ExtractGLBs unpacks an archive payload and returns its .glb members.
// Some generation tiers deliver the model wrapped in a zip together with
// textures; only the model binaries are of interest here.
func ExtractGLBs(ctx context.Context, archiveData []byte, archiveName string) ([]NamedFile, error) {
	tmp, err := os.CreateTemp("", "artifact-*"+filepath.Ext(archiveName))
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(archiveData); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	fsys, err := archives.FileSystem(ctx, tmpPath, nil)
	if err != nil {
		return nil, err
	}

	var glbs []NamedFile
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := filepath.Base(path)
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "._") {
			return nil
		}
		if strings.ToLower(filepath.Ext(name)) != ".glb" {
			return nil
		}
		reader, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer reader.Close()
		data, err := io.ReadAll(reader)
		if err != nil {
			return err
		}
		glbs = append(glbs, NamedFile{Name: name, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return glbs, nil
}
