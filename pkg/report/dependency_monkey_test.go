package report

import (
	"encoding/json"
	"testing"
)

func TestDependencyMonkeyReport(t *testing.T) {
	r := NewDependencyMonkeyReport()

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"skipped":0,"responses":[]}` {
		t.Errorf("empty report = %s", data)
	}

	p := product("p1", 0.3)
	if err := r.AddResponse("amun-1", p); err != nil {
		t.Fatalf("AddResponse: %v", err)
	}
	p.Score = 1 // must not leak into the stored response
	if err := r.AddResponse("amun-2", product("p2", 0.7)); err != nil {
		t.Fatalf("AddResponse: %v", err)
	}
	r.Skip()
	r.Skip()

	if r.Skipped() != 2 || r.ProductCount() != 2 {
		t.Errorf("Skipped/ProductCount = %d/%d", r.Skipped(), r.ProductCount())
	}

	responses := r.Responses()
	if responses[0].Response != "amun-1" || responses[1].Response != "amun-2" {
		t.Errorf("responses out of order: %+v", responses)
	}

	var first Product
	if err := json.Unmarshal(responses[0].Product, &first); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if first.ID != "p1" || first.Score != 0.3 {
		t.Errorf("stored product = %+v", first)
	}

	data, err = json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded struct {
		Skipped   int `json:"skipped"`
		Responses []struct {
			Response string         `json:"response"`
			Product  map[string]any `json:"product"`
		} `json:"responses"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Skipped != 2 || len(decoded.Responses) != 2 || decoded.Responses[1].Product["id"] != "p2" {
		t.Errorf("unexpected encoding: %s", data)
	}
}
