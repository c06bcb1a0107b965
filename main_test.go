package main

import "testing"

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name     string
		pipeline string
		target   string
		wantErr  bool
	}{
		{"valid star postgresql", "star", "postgresql", false},
		{"valid vault mysql", "vault", "mysql", false},
		{"valid both mongodb", "both", "mongodb", false},
		{"case insensitive", "STAR", "PostgreSQL", false},
		{"missing pipeline", "", "postgresql", true},
		{"missing target", "star", "", true},
		{"invalid pipeline", "graph", "postgresql", true},
		{"invalid target", "star", "oracle", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInput(tt.pipeline, tt.target)
			if tt.wantErr && err == nil {
				t.Errorf("Expected an error for pipeline %q target %q", tt.pipeline, tt.target)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	if !isSupported("star", supportedPipelines) {
		t.Errorf("Expected star to be supported")
	}
	if !isSupported("MYSQL", supportedTargets) {
		t.Errorf("Expected case-insensitive matching")
	}
	if isSupported("oracle", supportedTargets) {
		t.Errorf("Expected oracle to be unsupported")
	}
}
