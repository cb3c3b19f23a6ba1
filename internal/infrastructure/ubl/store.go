package ubl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	app "github.com/jhoicas/saphety-bridge/internal/application/saphety"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

var _ app.DocumentStore = (*Store)(nil)

// Store guarda los XML generados en la carpeta de salida configurada. La
// ruta completa de cada fichero queda registrada en la tabla de control, y
// el job de envío los relee desde ahí.
type Store struct {
	dir string
	log *logger.Logger
}

// NewStore crea la carpeta de salida si no existe.
func NewStore(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear carpeta de salida %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Save escribe el documento indentado con declaración XML y devuelve la ruta
// completa del fichero.
func (s *Store) Save(doc *etree.Document, filename string) (string, error) {
	path := filepath.Join(s.dir, filename)

	doc.Indent(2)
	if err := doc.WriteToFile(path); err != nil {
		return "", fmt.Errorf("escribir el fichero %s: %w", path, err)
	}

	s.log.Info().Str("file", path).Msg("fichero XML generado")
	return path, nil
}

// Read lee un XML ya generado por su ruta completa.
func (s *Store) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// List devuelve las rutas de los XML presentes en la carpeta de salida,
// opcionalmente limitado a un nombre de fichero concreto.
func (s *Store) List(filename string) ([]string, error) {
	if filename != "" {
		path := filepath.Join(s.dir, filename)
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
		return []string{path}, nil
	}
	return filepath.Glob(filepath.Join(s.dir, "*.xml"))
}
