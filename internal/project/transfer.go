package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

var whitespace = regexp.MustCompile(`\s+`)

// ExportFilename derives the artifact name from the project name and the date.
func ExportFilename(name, date string) string {
	return fmt.Sprintf("%s_%s.json", whitespace.ReplaceAllString(name, "_"), date)
}

// Export renders p as an indented JSON document. Nothing in the Store changes.
func (s *Store) Export(p *Project) (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		err := fmt.Errorf("export project: %w", ErrNotFound)
		s.logger.Error("export project", zap.Error(err))
		return Artifact{}, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		s.logger.Error("export project", zap.String("id", p.ID), zap.Error(err))
		return Artifact{}, fmt.Errorf("marshal project: %w", err)
	}

	return Artifact{
		Filename: ExportFilename(p.Name, s.now().UTC().Format("2006-01-02")),
		Data:     bytes.TrimRight(buf.Bytes(), "\n"),
	}, nil
}

// Import parses an exported project, gives it a fresh id and appends it to the
// collection. Invalid input leaves the collection untouched.
func (s *Store) Import(data []byte) (*Project, error) {
	p, err := decodeImport(data)
	if err != nil {
		s.logger.Error("import project", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.newID()
	p.Zones = Reconcile(p.Zones)
	s.projects = append(s.projects, p)
	s.save()
	s.logger.Info("project imported", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func decodeImport(data []byte) (*Project, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}

	var name string
	if raw, ok := fields["name"]; ok {
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, fmt.Errorf("%w: name must be a string", ErrInvalidProject)
		}
	}
	zones, hasZones := fields["zones"]
	if name == "" || !hasZones || bytes.Equal(bytes.TrimSpace(zones), []byte("null")) {
		return nil, fmt.Errorf("%w: name and zones are required", ErrInvalidProject)
	}

	// The incoming id is replaced anyway, whatever its type.
	delete(fields, "id")
	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}

	var p Project
	if err := json.Unmarshal(rest, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	return &p, nil
}
