package api

import (
	"encoding/json"
	"strings"
)

// Entity is the caller-facing view of a context entity: a local id and a flat
// set of named values.
type Entity struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// AttributeType tags the encoding of an Attribute value.
type AttributeType string

const (
	TypeString  AttributeType = "string"
	TypeNumber  AttributeType = "number"
	TypeObject  AttributeType = "object"
	TypeBoolean AttributeType = "boolean"
)

// Attribute is the wire form of one data field.
type Attribute struct {
	Name  string        `json:"name"`
	Type  AttributeType `json:"type"`
	Value string        `json:"value"`
}

// QualifiedID joins an entity type and a local id the way the broker stores them.
func QualifiedID(entityType, id string) string {
	return entityType + ":" + id
}

// LocalID returns the last colon-delimited segment of a qualified id.
func LocalID(qualified string) string {
	if i := strings.LastIndex(qualified, ":"); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// Code is a broker status code. Brokers send it as a string, some as a number.
type Code string

const (
	CodeOK       Code = "200"
	CodeNotFound Code = "404"
)

func (c *Code) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}
