package contracts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed schemas
var schemasFS embed.FS

// Ключи схем, которые не являются событиями
const (
	FilterRecordSchema = "FilterRecord/1.0.0"
	FilterSetSchema    = "FilterSet/1.0.0"
)

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	// Добавляем все схемы как ресурсы
	err := fs.WalkDir(schemasFS, "schemas", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		file, err := schemasFS.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := compiler.AddResource(path, file); err != nil {
			log.Fatalf("failed to add schema resource %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("error walking and adding schema resources: %v", err)
	}

	// Компилируем и регистрируем
	err = fs.WalkDir(schemasFS, "schemas", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		schema, err := compiler.Compile(path)
		if err != nil {
			log.Fatalf("could not compile schema %s: %v", path, err)
		}
		compiledSchemas[generateKeyFromPath(path)] = schema
		return nil
	})
	if err != nil {
		log.Fatalf("error walking and compiling schemas: %v", err)
	}
}

// generateKeyFromPath преобразует путь вида "schemas/events/property-inquiry/v1.json"
// в ключ вида "PropertyInquiryEvent/1.0.0". Для records и payloads суффикса нет.
func generateKeyFromPath(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(path, "schemas/"), ".json")

	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return ""
	}
	kind, name, version := parts[0], parts[1], parts[2]

	caser := cases.Title(language.English)
	var nameBuilder strings.Builder
	for _, p := range strings.Split(name, "-") {
		nameBuilder.WriteString(caser.String(p))
	}
	if kind == "events" {
		nameBuilder.WriteString("Event")
	}

	return fmt.Sprintf("%s/%s", nameBuilder.String(), strings.Replace(version, "v", "", 1)+".0.0")
}

// Validate проверяет JSON-документ по схеме с ключом key
func Validate(key string, body []byte) error {
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema '%s' not found", key)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("body is not a valid JSON: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}

// ValidateEvent проверяет тело сообщения по типу и версии события
func ValidateEvent(eventType, eventVersion string, body []byte) error {
	return Validate(fmt.Sprintf("%s/%s", eventType, eventVersion), body)
}

// RecordValidator - проверка сохраненных записей фильтров
type RecordValidator struct{}

func (RecordValidator) ValidateFilterRecord(body []byte) error {
	return Validate(FilterRecordSchema, body)
}
