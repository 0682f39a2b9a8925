package protocol

import (
	"reflect"
	"sort"

	"github.com/invopop/jsonschema"
)

// Schema 反射所有事件载荷，返回按事件名组织的 JSON Schema 文档
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	payloads := Payloads()
	names := make([]string, 0, len(payloads))
	for name := range payloads {
		names = append(names, name)
	}
	sort.Strings(names)

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Punch Arena Relay Protocol",
		Description: "Payload of every event carried in the {event, data} envelope.",
		Type:        "object",
	}
	for _, name := range names {
		s := reflector.ReflectFromType(reflect.TypeOf(payloads[name]))
		s.Version = ""
		s.Title = name
		root.OneOf = append(root.OneOf, s)
	}
	return root
}
