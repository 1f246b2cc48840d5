package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type IDType string

const (
	IDTypeCommand     IDType = "cmd"
	IDTypeWorkflow    IDType = "wf"
	IDTypeSession     IDType = "run"
	IDTypeCorrelation IDType = "cor"
)

var validIDTypes = map[IDType]bool{
	IDTypeCommand:     true,
	IDTypeWorkflow:    true,
	IDTypeSession:     true,
	IDTypeCorrelation: true,
}

var idRegex = regexp.MustCompile(`^(cmd|wf|run|cor)_[0-9a-f]{32}$`)

// GenerateID returns "<type>_<uuid hex without dashes>".
func GenerateID(idType IDType) (string, error) {
	if !validIDTypes[idType] {
		return "", fmt.Errorf("invalid ID type: %s", idType)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return fmt.Sprintf("%s_%s", idType, strings.ReplaceAll(id.String(), "-", "")), nil
}

// MustGenerateID is GenerateID for callers with a constant, valid type.
func MustGenerateID(idType IDType) string {
	id, err := GenerateID(idType)
	if err != nil {
		panic(err)
	}
	return id
}

func ValidateID(id string) bool {
	return idRegex.MatchString(id)
}

func ParseIDType(id string) (IDType, error) {
	if !ValidateID(id) {
		return "", fmt.Errorf("invalid ID format: %s", id)
	}
	match := idRegex.FindStringSubmatch(id)
	return IDType(match[1]), nil
}

// NewMetaData returns enabled metadata with a fresh command id.
func NewMetaData(name string) MetaData {
	return MetaData{
		ID:        MustGenerateID(IDTypeCommand),
		Name:      name,
		IsEnabled: true,
	}
}
