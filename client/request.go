package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
)

// ResponseType tells the client how to treat a successful body.
type ResponseType int

const (
	ResponseJSON ResponseType = iota
	ResponseBlob
)

// Params are list/query filters. Nil values, including typed nil pointers,
// are left out of the query string.
type Params map[string]any

// Values encodes p. Pointers are dereferenced.
func (p Params) Values() url.Values {
	v := url.Values{}
	for key, val := range p {
		s, ok := scalar(val)
		if !ok {
			continue
		}
		v.Set(key, s)
	}
	return v
}

func scalar(val any) (string, bool) {
	if val == nil {
		return "", false
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		val = rv.Elem().Interface()
	}
	switch t := val.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// Request is the envelope of one call. It is built per call and never reused.
type Request struct {
	Method string
	// Path is relative to the client's base URL, e.g. "/hospitales/".
	Path   string
	Params Params
	// Body is encoded as JSON unless Form or Multipart is set.
	Body         any
	Form         url.Values
	Multipart    *Multipart
	ResponseType ResponseType
	Header       http.Header
}

// Response is a successful (2xx) answer with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Multipart is a multipart/form-data body: plain fields plus file parts.
type Multipart struct {
	Fields url.Values
	Files  []FilePart
}

// FilePart is one uploaded file.
type FilePart struct {
	Field    string
	Filename string
	Data     []byte
}

// encode writes the fields in key order, then the files in slice order, and
// returns the body with its Content-Type.
func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range m.Fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
