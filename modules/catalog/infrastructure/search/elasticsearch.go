package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/go-faster/errors"
)

type ElasticsearchOptions struct {
	URL       string
	Timeout   time.Duration
	Transport http.RoundTripper
}

type ElasticsearchBackend struct {
	client  *elasticsearch.Client
	timeout time.Duration
}

func NewElasticsearchBackend(opts ElasticsearchOptions) (*ElasticsearchBackend, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{opts.URL},
		Transport: opts.Transport,
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create elasticsearch client")
	}
	return &ElasticsearchBackend{client: client, timeout: opts.Timeout}, nil
}

func (b *ElasticsearchBackend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *ElasticsearchBackend) IndexExists(ctx context.Context, index string) (bool, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	res, err := b.client.Indices.Exists([]string{index}, b.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, errors.Wrapf(err, "check index %s", index)
	}
	defer drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, decodeError(res)
	}
}

func (b *ElasticsearchBackend) CreateIndex(ctx context.Context, index string, mapping Mapping) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"mappings": map[string]any{"properties": mapping},
	})
	if err != nil {
		return errors.Wrap(err, "encode mapping")
	}
	res, err := b.client.Indices.Create(
		index,
		b.client.Indices.Create.WithBody(bytes.NewReader(body)),
		b.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return errors.Wrapf(err, "create index %s", index)
	}
	defer drain(res)

	if res.IsError() {
		rerr := decodeError(res)
		var respErr *ResponseError
		if errors.As(rerr, &respErr) && respErr.Type == "resource_already_exists_exception" {
			return ErrIndexExists
		}
		return rerr
	}
	return nil
}

func (b *ElasticsearchBackend) Upsert(ctx context.Context, index, id string, doc any, refresh RefreshMode) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	opts := []func(*esapi.IndexRequest){
		b.client.Index.WithDocumentID(id),
		b.client.Index.WithContext(ctx),
	}
	if refresh != RefreshNone {
		opts = append(opts, b.client.Index.WithRefresh(string(refresh)))
	}
	res, err := b.client.Index(index, bytes.NewReader(body), opts...)
	if err != nil {
		return errors.Wrapf(err, "index document %s/%s", index, id)
	}
	defer drain(res)

	if res.IsError() {
		return decodeError(res)
	}
	return nil
}

func (b *ElasticsearchBackend) Delete(ctx context.Context, index, id string, refresh RefreshMode) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	opts := []func(*esapi.DeleteRequest){b.client.Delete.WithContext(ctx)}
	if refresh != RefreshNone {
		opts = append(opts, b.client.Delete.WithRefresh(string(refresh)))
	}
	res, err := b.client.Delete(index, id, opts...)
	if err != nil {
		return errors.Wrapf(err, "delete document %s/%s", index, id)
	}
	defer drain(res)

	if res.IsError() {
		return decodeError(res)
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID    string  `json:"_id"`
			Score float64 `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

func (b *ElasticsearchBackend) Query(ctx context.Context, index, text string, fields []string, limit int) ([]Hit, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  text,
				"fields": fields,
			},
		},
		"size": limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode query")
	}
	res, err := b.client.Search(
		b.client.Search.WithIndex(index),
		b.client.Search.WithBody(bytes.NewReader(body)),
		b.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", index)
	}
	defer drain(res)

	if res.IsError() {
		return nil, decodeError(res)
	}
	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

func decodeError(res *esapi.Response) error {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	rerr := &ResponseError{Status: res.StatusCode}
	if res.Body == nil {
		return rerr
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil || len(payload.Error) == 0 {
		return rerr
	}
	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(payload.Error, &detail); err == nil {
		rerr.Type, rerr.Reason = detail.Type, detail.Reason
	} else {
		var reason string
		if json.Unmarshal(payload.Error, &reason) == nil {
			rerr.Reason = reason
		}
	}
	return rerr
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
