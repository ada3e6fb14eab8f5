package formutil_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/formutil"
	"github.com/dalemusser/yar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		want    payload
	}{
		{"valid", `{"name":"a","count":2}`, false, payload{Name: "a", Count: 2}},
		{"empty body", ``, false, payload{}},
		{"malformed", `{"name":`, true, payload{}},
		{"wrong type", `{"count":"two"}`, true, payload{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			var got payload
			err := formutil.DecodeJSON(rec, req, &got)
			if tt.wantErr {
				if !apierr.IsKind(err, apierr.KindValidation) {
					t.Fatalf("err: got %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			if got != tt.want {
				t.Errorf("decoded: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON_WrongTypeNamesField(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"count":"two"}`))
	var got payload
	err := formutil.DecodeJSON(httptest.NewRecorder(), req, &got)
	e, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected apierr, got %v", err)
	}
	if _, ok := e.Fields["count"]; !ok {
		t.Errorf("fields: got %v, want count", e.Fields)
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("x", formutil.MaxBodyBytes) + `"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(big))
	var got payload
	err := formutil.DecodeJSON(httptest.NewRecorder(), req, &got)
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("err: got %v, want validation error", err)
	}
}

func TestObjectIDParam(t *testing.T) {
	id := primitive.NewObjectID()
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/", nil), "id", id.Hex())
	got, err := formutil.ObjectIDParam(req, "id")
	if err != nil {
		t.Fatalf("ObjectIDParam: %v", err)
	}
	if got != id {
		t.Errorf("id: got %s, want %s", got.Hex(), id.Hex())
	}

	req = testutil.WithChiURLParam(httptest.NewRequest("GET", "/", nil), "id", "not-an-id")
	if _, err := formutil.ObjectIDParam(req, "id"); !apierr.IsKind(err, apierr.KindValidation) {
		t.Errorf("malformed id: got %v, want validation error", err)
	}
}
