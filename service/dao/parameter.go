package dao

// Parameter is a named List filter value.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter holding a single value or a list of values.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// StatusParameter filters records by status.
func StatusParameter(values ...string) *Parameter {
	return NewParameter(ParameterStatus, values...)
}

// ParameterStatus is the name of the status filter parameter.
const ParameterStatus = "Status"
