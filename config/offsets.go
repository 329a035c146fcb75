package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed offsets.yaml
var defaultOffsets []byte

// DefaultOffsets retorna a tabela de caminhos embutida no binário
func DefaultOffsets() (map[string]string, error) {
	out := make(map[string]string)
	if err := yaml.Unmarshal(defaultOffsets, &out); err != nil {
		return nil, fmt.Errorf("loading default offsets: %w", err)
	}
	return out, nil
}

// LoadOffsets carrega a tabela padrão e aplica por cima as entradas do arquivo em path.
// path vazio retorna só a tabela padrão.
func LoadOffsets(path string) (map[string]string, error) {
	out, err := DefaultOffsets()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading offsets %s: %w", path, err)
	}

	override := make(map[string]string)
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("loading offsets %s: %w", path, err)
	}
	for name, src := range override {
		out[name] = src
	}
	return out, nil
}
