package toolkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/elee1766/toolchat/src/mcp"
	"github.com/go-playground/validator/v10"
	jsonschema "github.com/swaggest/jsonschema-go"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GenericToolHandler is a type-safe handler function
type GenericToolHandler[TInput any, TOutput any] func(ctx context.Context, input TInput) (TOutput, error)

// GenericTool is a typed tool. Its schema is reflected from TInput and its
// input is checked against `validate` tags before the handler runs.
type GenericTool[TInput any, TOutput any] struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Handler     GenericToolHandler[TInput, TOutput]
}

// GetName returns the tool's name
func (gt *GenericTool[TInput, TOutput]) GetName() string {
	return gt.Name
}

// GetDescription returns the tool's description
func (gt *GenericTool[TInput, TOutput]) GetDescription() string {
	return gt.Description
}

// GetParameters returns the JSON schema for the tool's parameters
func (gt *GenericTool[TInput, TOutput]) GetParameters() *jsonschema.Schema {
	return gt.Schema
}

// Execute decodes and validates the arguments, then runs the handler.
func (gt *GenericTool[TInput, TOutput]) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var input TInput
	if len(arguments) > 0 && string(arguments) != "null" {
		if err := json.Unmarshal(arguments, &input); err != nil {
			return ErrorResult(fmt.Sprintf("failed to parse input: %v", err)), nil
		}
	}

	if err := validateInput(input); err != nil {
		return ErrorResult(fmt.Sprintf("validation failed: %v", err)), nil
	}

	output, err := gt.Handler(ctx, input)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return ErrorResult(toolErr.Message), nil
		}
		return ErrorResult(fmt.Sprintf("Error executing %s: %v", gt.Name, err)), nil
	}

	if r, ok := any(output).(ContentRenderer); ok {
		return &mcp.CallToolResult{Content: r.Content()}, nil
	}

	content, err := json.Marshal(output)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return TextResult(string(content)), nil
}

// validateInput runs struct validation and flattens the messages.
func validateInput(input any) error {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return errors.New("input is required")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	err := validate.Struct(v.Interface())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldMessage(v.Type(), e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldMessage names the field by its JSON key.
func fieldMessage(t reflect.Type, e validator.FieldError) string {
	name := e.Field()
	if f, ok := t.FieldByName(e.StructField()); ok {
		if tag := strings.Split(f.Tag.Get("json"), ",")[0]; tag != "" {
			name = tag
		}
	}
	switch e.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("'%s' is required", name)
	case "oneof":
		return fmt.Sprintf("'%s' must be one of: %s", name, e.Param())
	default:
		return fmt.Sprintf("'%s' failed %s validation", name, e.Tag())
	}
}

// NewGenericTool creates a tool with a schema reflected from TInput.
func NewGenericTool[TInput any, TOutput any](name, description string, handler GenericToolHandler[TInput, TOutput]) (*GenericTool[TInput, TOutput], error) {
	var input TInput
	inputType := reflect.TypeOf(input)
	if inputType == nil {
		return nil, fmt.Errorf("tool input type must be a struct")
	}
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	if inputType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tool input type must be a struct, got %s", inputType.Kind())
	}

	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	return &GenericTool[TInput, TOutput]{
		Name:        name,
		Description: description,
		Schema:      &schema,
		Handler:     handler,
	}, nil
}

// Ensure GenericTool implements the Tool interface
var _ Tool = (*GenericTool[struct{}, struct{}])(nil)
