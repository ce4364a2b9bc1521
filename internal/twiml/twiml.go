// Package twiml builds the call-control markup the provider executes on a
// live call leg. Rendering is pure: no network or state access.
package twiml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// Response is the top-level markup document. Verbs render in order.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

// Say speaks text to the caller.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

// Dial connects the current call to a PSTN number or a client identity.
// Exactly one of Number or Client must be set.
type Dial struct {
	XMLName  xml.Name `xml:"Dial"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Timeout  int      `xml:"timeout,attr,omitempty"`

	// Action/Method, when set, make the provider report the dial outcome
	// to a status callback.
	Action string `xml:"action,attr,omitempty"`
	Method string `xml:"method,attr,omitempty"`

	Number string `xml:"Number,omitempty"`
	Client string `xml:"Client,omitempty"`
}

func (r *Response) Append(verb any) {
	r.Verbs = append(r.Verbs, verb)
}

// Render serializes the document with the XML declaration the provider
// expects. Content type at the HTTP boundary is text/xml.
func Render(r Response) (string, error) {
	for _, v := range r.Verbs {
		d, ok := v.(Dial)
		if !ok {
			continue
		}
		hasNumber := strings.TrimSpace(d.Number) != ""
		hasClient := strings.TrimSpace(d.Client) != ""
		if hasNumber == hasClient {
			return "", errors.New("twiml: dial requires exactly one of number or client")
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
