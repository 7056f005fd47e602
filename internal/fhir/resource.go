package fhir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// MediaType is the content type of FHIR JSON documents.
const MediaType = "application/fhir+json"

// Resource type discriminators.
const (
	TypeTask             = "Task"
	TypeParameters       = "Parameters"
	TypeOperationOutcome = "OperationOutcome"
)

// ErrMalformed is returned when a body is not a JSON object.
var ErrMalformed = errors.New("malformed FHIR resource")

// Resource is implemented by *Task, *Parameters, *OperationOutcome and *Other.
type Resource interface {
	ResourceType() string
	resource()
}

// Coding is a code defined by a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a concept given as text and/or codings.
type CodeableConcept struct {
	Text   string   `json:"text,omitempty"`
	Coding []Coding `json:"coding,omitempty"`
}

// Label returns the text of the concept, or the first non-empty code.
func (c CodeableConcept) Label() string {
	if c.Text != "" {
		return c.Text
	}

	for _, coding := range c.Coding {
		if coding.Code != "" {
			return coding.Code
		}
	}

	return ""
}

// Decimal is a FHIR decimal. Servers send it either as a JSON number or,
// less strictly, as a numeric string.
type Decimal float64

// UnmarshalJSON accepts 57.8 as well as "57.8".
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		data = []byte(s)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("decimal %q: %w", data, err)
	}

	*d = Decimal(v)

	return nil
}

// Task is a unit of asynchronous work tracked by the server.
type Task struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status,omitempty"`
	Output []TaskOutput `json:"output,omitempty"`
}

// TaskOutput is one typed output value of a Task.
type TaskOutput struct {
	Type         CodeableConcept `json:"type"`
	ValueDecimal *Decimal        `json:"valueDecimal,omitempty"`
	ValueInteger *int            `json:"valueInteger,omitempty"`
	ValueString  *string         `json:"valueString,omitempty"`
}

// Parameters is the key-value envelope of FHIR operations.
type Parameters struct {
	Parameter []Parameter `json:"parameter,omitempty"`
}

// Parameter is a named operation parameter.
type Parameter struct {
	Name              string  `json:"name"`
	ValueString       *string `json:"valueString,omitempty"`
	ValueBase64Binary string  `json:"valueBase64Binary,omitempty"`
}

// Find returns the first parameter with the given name.
func (p *Parameters) Find(name string) (Parameter, bool) {
	for _, param := range p.Parameter {
		if param.Name == name {
			return param, true
		}
	}

	return Parameter{}, false
}

// Issue severities of an OperationOutcome.
const (
	SeverityFatal       = "fatal"
	SeverityError       = "error"
	SeverityWarning     = "warning"
	SeverityInformation = "information"
)

// OperationOutcome reports errors, warnings and information about an operation.
type OperationOutcome struct {
	Issue []Issue `json:"issue,omitempty"`
}

// Issue is a single OperationOutcome entry.
type Issue struct {
	Severity    string           `json:"severity,omitempty"`
	Code        string           `json:"code,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
	Details     *CodeableConcept `json:"details,omitempty"`
}

// Other is any resource whose type is not modeled here, including a JSON
// object without resourceType.
type Other struct {
	Type string
}

// ResourceType implements Resource.
func (*Task) ResourceType() string { return TypeTask }

// ResourceType implements Resource.
func (*Parameters) ResourceType() string { return TypeParameters }

// ResourceType implements Resource.
func (*OperationOutcome) ResourceType() string { return TypeOperationOutcome }

// ResourceType implements Resource.
func (o *Other) ResourceType() string { return o.Type }

func (*Task) resource()             {}
func (*Parameters) resource()       {}
func (*OperationOutcome) resource() {}
func (*Other) resource()            {}

// MarshalJSON adds the resourceType discriminator.
func (t *Task) MarshalJSON() ([]byte, error) {
	type plain Task

	return marshalWithType(TypeTask, (*plain)(t))
}

// MarshalJSON adds the resourceType discriminator.
func (p *Parameters) MarshalJSON() ([]byte, error) {
	type plain Parameters

	return marshalWithType(TypeParameters, (*plain)(p))
}

// MarshalJSON adds the resourceType discriminator.
func (o *OperationOutcome) MarshalJSON() ([]byte, error) {
	type plain OperationOutcome

	return marshalWithType(TypeOperationOutcome, (*plain)(o))
}

func marshalWithType(resourceType string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	typeField, err := json.Marshal(resourceType)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.WriteString(`{"resourceType":`)
	buf.Write(typeField)

	// body is a JSON object; splice its members after the discriminator.
	if members := bytes.TrimSpace(body[1 : len(body)-1]); len(members) > 0 {
		buf.WriteByte(',')
		buf.Write(members)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the fields that decode and drops the ones that do not.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     json.RawMessage `json:"id"`
		Status json.RawMessage `json:"status"`
		Output json.RawMessage `json:"output"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.ID, _ = lenient[string](raw.ID)
	t.Status, _ = lenient[string](raw.Status)
	t.Output = lenientList[TaskOutput](raw.Output)

	return nil
}

// UnmarshalJSON ignores values of an unexpected JSON type, so a bad value
// never hides the type of the output.
func (o *TaskOutput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type         json.RawMessage `json:"type"`
		ValueDecimal json.RawMessage `json:"valueDecimal"`
		ValueInteger json.RawMessage `json:"valueInteger"`
		ValueString  json.RawMessage `json:"valueString"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.Type, _ = lenient[CodeableConcept](raw.Type)
	o.ValueDecimal = lenientPtr[Decimal](raw.ValueDecimal)
	o.ValueInteger = lenientPtr[int](raw.ValueInteger)
	o.ValueString = lenientPtr[string](raw.ValueString)

	return nil
}

// UnmarshalJSON keeps every parameter that decodes.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	var raw struct {
		Parameter json.RawMessage `json:"parameter"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Parameter = lenientList[Parameter](raw.Parameter)

	return nil
}

// UnmarshalJSON decodes each field on its own.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name              json.RawMessage `json:"name"`
		ValueString       json.RawMessage `json:"valueString"`
		ValueBase64Binary json.RawMessage `json:"valueBase64Binary"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Name, _ = lenient[string](raw.Name)
	p.ValueString = lenientPtr[string](raw.ValueString)
	p.ValueBase64Binary, _ = lenient[string](raw.ValueBase64Binary)

	return nil
}

// UnmarshalJSON keeps every issue that decodes.
func (o *OperationOutcome) UnmarshalJSON(data []byte) error {
	var raw struct {
		Issue json.RawMessage `json:"issue"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.Issue = lenientList[Issue](raw.Issue)

	return nil
}

// UnmarshalJSON decodes each field on its own.
func (i *Issue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Severity    json.RawMessage `json:"severity"`
		Code        json.RawMessage `json:"code"`
		Diagnostics json.RawMessage `json:"diagnostics"`
		Details     json.RawMessage `json:"details"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	i.Severity, _ = lenient[string](raw.Severity)
	i.Code, _ = lenient[string](raw.Code)
	i.Diagnostics, _ = lenient[string](raw.Diagnostics)
	i.Details = lenientPtr[CodeableConcept](raw.Details)

	return nil
}

// lenient decodes data into a T, reporting false for absent, null or
// mistyped values.
func lenient[T any](data json.RawMessage) (T, bool) {
	var value T

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return value, false
	}

	if err := json.Unmarshal(data, &value); err != nil {
		var zero T

		return zero, false
	}

	return value, true
}

func lenientPtr[T any](data json.RawMessage) *T {
	value, ok := lenient[T](data)
	if !ok {
		return nil
	}

	return &value
}

// lenientList decodes a JSON array element by element, skipping elements
// that are not objects.
func lenientList[T any](data json.RawMessage) []T {
	elements, _ := lenient[[]json.RawMessage](data)
	if len(elements) == 0 {
		return nil
	}

	values := make([]T, 0, len(elements))

	for _, element := range elements {
		if value, ok := lenient[T](element); ok {
			values = append(values, value)
		}
	}

	return values
}

// Decode parses body and returns the typed resource selected by resourceType.
// Fields of the typed resource that have an unexpected JSON type are dropped
// individually; only a body that is not a JSON object is malformed.
func Decode(body []byte) (Resource, error) {
	var header struct {
		ResourceType string `json:"resourceType"`
	}

	if err := json.Unmarshal(body, &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var res Resource

	switch header.ResourceType {
	case TypeTask:
		res = new(Task)
	case TypeParameters:
		res = new(Parameters)
	case TypeOperationOutcome:
		res = new(OperationOutcome)
	default:
		return &Other{Type: header.ResourceType}, nil
	}

	if err := json.Unmarshal(body, res); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, header.ResourceType, err)
	}

	return res, nil
}
