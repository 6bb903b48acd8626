package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
	"github.com/yndnr/tokrelay-go/internal/core/service"
)

// attachmentsKey is the reserved JSON key carrying attachments.
const attachmentsKey = "attachments"

// handleCollect handles POST /collect/{token}.
func (h *Handler) handleCollect(w http.ResponseWriter, r *http.Request) {
	tokenID := r.PathValue("token")

	if _, err := h.collect.Authorize(r.Context(), tokenID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if h.maxPayload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxPayload)
	}

	fields, atts, err := parseReport(r)
	if err != nil {
		if errors.Is(err, domain.ErrPayloadTooLarge) {
			h.collect.RecordRejected(service.RejectTooLarge)
		} else {
			h.collect.RecordRejected(service.RejectMalformed)
		}
		h.handleServiceError(w, r, err)
		return
	}

	report, err := h.collect.Submit(r.Context(), &service.CollectRequest{
		TokenID:     tokenID,
		ClientIP:    ClientIP(r, h.trustProxy),
		Fields:      fields,
		Attachments: atts,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, &CollectResponse{
		Status:    StatusSuccess,
		ReportID:  report.ID,
		RequestID: getRequestID(r),
	})
}

// parseReport decodes the body according to its media type.
// An empty Content-Type is treated as JSON.
func parseReport(r *http.Request) (map[string]any, []domain.Attachment, error) {
	mediaType := "application/json"
	var params map[string]string
	if ct := r.Header.Get("Content-Type"); ct != "" {
		var err error
		mediaType, params, err = mime.ParseMediaType(ct)
		if err != nil {
			return nil, nil, domain.ErrMalformedPayload.WithDetails("bad content type")
		}
	}

	switch mediaType {
	case "application/json":
		return parseJSON(r.Body)
	case "multipart/form-data":
		boundary := params["boundary"]
		if boundary == "" {
			return nil, nil, domain.ErrMalformedPayload.WithDetails("missing multipart boundary")
		}
		return parseMultipart(multipart.NewReader(r.Body, boundary))
	case "application/x-www-form-urlencoded":
		return parseForm(r.Body)
	default:
		return nil, nil, domain.ErrMalformedPayload.WithDetails("unsupported content type " + mediaType)
	}
}

func parseJSON(body io.Reader) (map[string]any, []domain.Attachment, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(body)
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, bodyError(err, "body must be a JSON object")
	}
	if raw == nil {
		return nil, nil, domain.ErrMalformedPayload.WithDetails("body must be a JSON object")
	}
	if dec.More() {
		return nil, nil, domain.ErrMalformedPayload.WithDetails("trailing data after JSON object")
	}

	fields := make(map[string]any, len(raw))
	var atts []domain.Attachment
	for key, value := range raw {
		if key == attachmentsKey {
			var payload []attachmentPayload
			if err := json.Unmarshal(value, &payload); err != nil {
				return nil, nil, domain.ErrMalformedPayload.WithDetails("attachments: " + err.Error())
			}
			for i, p := range payload {
				if p.Data == nil {
					return nil, nil, domain.ErrMalformedPayload.WithDetails(fmt.Sprintf("attachments[%d]: missing data", i))
				}
				atts = append(atts, domain.Attachment{Name: p.Name, ContentType: p.ContentType, Data: p.Data})
			}
			continue
		}

		v, err := decodeValue(value)
		if err != nil {
			return nil, nil, domain.ErrMalformedPayload.WithDetails(key + ": " + err.Error())
		}
		fields[key] = v
	}
	return fields, atts, nil
}

// decodeValue decodes one field. Numbers stay json.Number so integers
// beyond float64 precision are relayed as sent.
func decodeValue(data json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseMultipart(mr *multipart.Reader) (map[string]any, []domain.Attachment, error) {
	fields := map[string]any{}
	var atts []domain.Attachment

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, bodyError(err, "bad multipart body")
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, part); err != nil {
			part.Close()
			return nil, nil, bodyError(err, "bad multipart part")
		}
		part.Close()

		if part.FileName() != "" {
			atts = append(atts, domain.Attachment{
				Name:        part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        buf.Bytes(),
			})
			continue
		}
		if name := part.FormName(); name != "" {
			addField(fields, name, buf.String())
		}
	}
	return fields, atts, nil
}

func parseForm(body io.Reader) (map[string]any, []domain.Attachment, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, bodyError(err, "bad form body")
	}
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, nil, domain.ErrMalformedPayload.WithDetails("bad form encoding")
	}

	fields := make(map[string]any, len(values))
	for name, vs := range values {
		for _, v := range vs {
			addField(fields, name, v)
		}
	}
	return fields, nil, nil
}

// addField stores value under name; repeated names collect into a list.
func addField(fields map[string]any, name, value string) {
	switch cur := fields[name].(type) {
	case nil:
		fields[name] = value
	case []any:
		fields[name] = append(cur, value)
	default:
		fields[name] = []any{cur, value}
	}
}

// bodyError maps read failures to PayloadTooLarge or MalformedPayload.
func bodyError(err error, details string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.ErrPayloadTooLarge.WithDetails(fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
	}
	return domain.ErrMalformedPayload.WithDetails(details)
}
