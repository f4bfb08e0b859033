package tools

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ToolDefinition represents a tool that can be called by the reasoning model.
// The parameter schema is reflected from the tool function's input struct and
// compiled for validation once, at registration time.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`

	fn       reflect.Value
	fnType   reflect.Type
	compiled *gojsonschema.Schema
}

// ToolCall represents a request to execute a tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ErrorKind classifies tool execution failures so the agent loop can surface
// them to the model as structured tool errors rather than process failures.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindExecution  ErrorKind = "execution"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindTimeout    ErrorKind = "timeout"
)

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	ID        string    `json:"id"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// NewToolFromFunc creates a ToolDefinition from a Go function.
//
// Supported signatures:
//
//	func(Input) (Result, error)
//	func(context.Context, Input) (Result, error)
//
// where Input is a struct whose fields carry json / jsonschema tags.
func NewToolFromFunc(name, description string, fn any) (*ToolDefinition, error) {
	if name == "" {
		return nil, errors.New("tool name cannot be empty")
	}
	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, errors.New("provided value is not a function")
	}
	if fnType.NumOut() != 2 || !fnType.Out(1).Implements(errType) {
		return nil, errors.New("tool function must return (result, error)")
	}

	inputType, err := toolInputType(fnType)
	if err != nil {
		return nil, err
	}

	schema, err := reflectInputSchema(inputType)
	if err != nil {
		return nil, errors.Wrapf(err, "reflect schema for tool %s", name)
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return nil, errors.Wrapf(err, "compile schema for tool %s", name)
	}

	return &ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  schema,
		fn:          fnValue,
		fnType:      fnType,
		compiled:    compiled,
	}, nil
}

func toolInputType(fnType reflect.Type) (reflect.Type, error) {
	switch fnType.NumIn() {
	case 1:
		if fnType.In(0) == ctxType {
			return nil, nil
		}
		return fnType.In(0), nil
	case 2:
		if fnType.In(0) != ctxType {
			return nil, errors.New("two-arg tool function must be (context.Context, Input)")
		}
		return fnType.In(1), nil
	default:
		return nil, errors.New("tool function must take (Input) or (context.Context, Input)")
	}
}

func reflectInputSchema(inputType reflect.Type) (*jsonschema.Schema, error) {
	if inputType == nil {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	instance := reflect.New(inputType).Elem().Interface()
	reflector := jsonschema.Reflector{
		// Expand definitions inline instead of using $refs, for provider compatibility
		DoNotReference: true,
	}
	schema := reflector.Reflect(instance)
	if schema.Type == "" && schema.Ref == "" {
		schema.Type = "object"
	}
	return schema, nil
}

func compileSchema(schema *jsonschema.Schema) (*gojsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
}

// ValidateArguments checks an argument document against the tool's compiled
// schema. A nil error means the arguments are acceptable.
func (td *ToolDefinition) ValidateArguments(args []byte) error {
	if td.compiled == nil {
		return nil
	}
	if len(args) == 0 {
		args = []byte("{}")
	}
	result, err := td.compiled.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return errors.Wrap(err, "validate arguments")
	}
	if result.Valid() {
		return nil
	}
	msg := ""
	for _, resErr := range result.Errors() {
		if msg != "" {
			msg += "; "
		}
		msg += resErr.String()
	}
	return errors.Errorf("invalid arguments for %s: %s", td.Name, msg)
}

// Execute unmarshals the arguments into the tool's input struct and calls the
// underlying function.
func (td *ToolDefinition) Execute(ctx context.Context, args []byte) (any, error) {
	if !td.fn.IsValid() {
		return nil, errors.Errorf("tool %s is not executable", td.Name)
	}

	var in []reflect.Value
	switch td.fnType.NumIn() {
	case 1:
		if td.fnType.In(0) == ctxType {
			in = []reflect.Value{reflect.ValueOf(ctx)}
		} else {
			input, err := unmarshalInput(td.fnType.In(0), args)
			if err != nil {
				return nil, err
			}
			in = []reflect.Value{input}
		}
	case 2:
		input, err := unmarshalInput(td.fnType.In(1), args)
		if err != nil {
			return nil, err
		}
		in = []reflect.Value{reflect.ValueOf(ctx), input}
	}

	results := td.fn.Call(in)
	if errVal := results[1].Interface(); errVal != nil {
		return nil, errVal.(error)
	}
	return results[0].Interface(), nil
}

func unmarshalInput(inputType reflect.Type, args []byte) (reflect.Value, error) {
	input := reflect.New(inputType)
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, input.Interface()); err != nil {
		return reflect.Value{}, errors.Wrap(err, "unmarshal tool arguments")
	}
	return input.Elem(), nil
}
