package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"
)

// File - один заполненный документ для архива.
type File struct {
	Name string
	Data []byte
}

// EntryName - имя записи в архиве: порядковый номер с нулём и исходное имя.
// Номер сохраняет порядок запроса и разводит повторы одного шаблона.
func EntryName(i int, name string) string {
	name = strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if name == "" || name == "." {
		name = "form.pdf"
	}
	return fmt.Sprintf("%02d_%s", i+1, path.Base(name))
}

// Build собирает tar.gz из заполненных PDF в порядке files.
// Возвращает архив и sha256 в hex.
func Build(files []File) ([]byte, string, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	// детерминируем gzip-заголовок
	gz.Name = ""
	gz.Comment = ""
	gz.ModTime = time.Unix(0, 0)

	tw := tar.NewWriter(gz)

	for i, f := range files {
		hdr := &tar.Header{
			Name:    EntryName(i, f.Name),
			Mode:    0644,
			Size:    int64(len(f.Data)),
			ModTime: time.Unix(0, 0),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return nil, "", err
		}
		if _, err := tw.Write(f.Data); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return nil, "", err
		}
	}

	if err := tw.Close(); err != nil {
		_ = gz.Close()
		return nil, "", err
	}
	if err := gz.Close(); err != nil {
		return nil, "", err
	}

	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}
