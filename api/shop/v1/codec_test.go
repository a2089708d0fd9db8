package shopv1

import (
	"testing"
	"time"

	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	if codec == nil {
		t.Fatalf("codec %q is not registered", CodecName)
	}
	if codec.Name() != CodecName {
		t.Fatalf("unexpected codec name %q", codec.Name())
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := jsonCodec{}
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	name := "Teapot"

	in := &SearchItemsRequest{Keyword: "tea", SellStatus: "SELL", CreatedSince: &since, Page: 1}
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out SearchItemsRequest
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Keyword != "tea" || out.Page != 1 || out.CreatedSince == nil || !out.CreatedSince.Equal(since) {
		t.Fatalf("unexpected round trip result: %+v", out)
	}

	update := &UpdateItemRequest{ItemID: "item-1", Name: &name}
	data, err = codec.Marshal(update)
	if err != nil {
		t.Fatalf("marshal update: %v", err)
	}
	var decoded UpdateItemRequest
	if err := codec.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if decoded.Name == nil || *decoded.Name != name || decoded.StockQty != nil {
		t.Fatalf("partial update fields lost: %+v", decoded)
	}
}

func TestJSONCodecEmptyPayload(t *testing.T) {
	var req ListCartLinesRequest
	if err := (jsonCodec{}).Unmarshal(nil, &req); err != nil {
		t.Fatalf("empty payload must decode into zero value: %v", err)
	}
	if err := (jsonCodec{}).Unmarshal([]byte("{broken"), &req); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
