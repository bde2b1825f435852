package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Splitter separates the tag and arguments of an encoded payload.
const Splitter = "|"

const (
	tagSelectService     = "SelectService"
	tagSelectQueryOption = "SelectQueryOption"
	tagSelectURLAction   = "SelectUrlAction"
)

var (
	ErrUnknownPayload   = errors.New("unknown payload")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Payload is a decoded button callback. The set of implementations is
// closed: SelectService, SelectQueryOption and SelectURLAction.
type Payload interface {
	Encode() string
	isPayload()
}

type SelectService struct {
	Index int
}

type SelectQueryOption struct {
	Field string
	Value string
}

type SelectURLAction struct {
	Index int
}

func (p SelectService) Encode() string {
	return tagSelectService + Splitter + strconv.Itoa(p.Index)
}

func (p SelectQueryOption) Encode() string {
	return tagSelectQueryOption + Splitter + p.Field + Splitter + p.Value
}

func (p SelectURLAction) Encode() string {
	return tagSelectURLAction + Splitter + strconv.Itoa(p.Index)
}

func (SelectService) isPayload()     {}
func (SelectQueryOption) isPayload() {}
func (SelectURLAction) isPayload()   {}

// DecodePayload parses an encoded payload. Unknown tags and bad arguments
// are errors.
func DecodePayload(s string) (Payload, error) {
	tag, rest, _ := strings.Cut(s, Splitter)
	switch tag {
	case tagSelectService:
		i, err := decodeIndex(rest)
		if err != nil {
			return nil, err
		}
		return SelectService{Index: i}, nil
	case tagSelectQueryOption:
		field, value, ok := strings.Cut(rest, Splitter)
		if !ok || field == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedPayload, s)
		}
		return SelectQueryOption{Field: field, Value: value}, nil
	case tagSelectURLAction:
		i, err := decodeIndex(rest)
		if err != nil {
			return nil, err
		}
		return SelectURLAction{Index: i}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPayload, tag)
}

func decodeIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: bad index %q", ErrMalformedPayload, s)
	}
	return i, nil
}
