package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/themonkai/scripture-rag/common/logger"
	"github.com/themonkai/scripture-rag/config"
	"github.com/themonkai/scripture-rag/schema"
)

const (
	fieldID       = "id"
	fieldContent  = "content"
	fieldMetadata = "metadata"
	fieldVector   = "vector"

	maxIDLength      = 256
	maxContentLength = 8192

	hnswM              = 8
	hnswEfConstruction = 64
	hnswEfSearch       = 64
)

// milvusProvider stores corpus chunks in a Milvus collection.
type milvusProvider struct {
	cli        client.Client
	collection string
	metric     entity.MetricType
	dim        int
}

func newMilvusProvider(cfg *config.VectorDBConfig, dim int) (*milvusProvider, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cli, err := client.NewClient(ctx, client.Config{
		Address:  addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus %s failed, err: %w", addr, err)
	}
	metric := entity.IP
	if cfg.MetricType != "" {
		metric = entity.MetricType(strings.ToUpper(cfg.MetricType))
	}
	p := &milvusProvider{
		cli:        cli,
		collection: cfg.Collection,
		metric:     metric,
		dim:        dim,
	}
	if err := p.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *milvusProvider) ensureCollection(ctx context.Context) error {
	has, err := p.cli.HasCollection(ctx, p.collection)
	if err != nil {
		return fmt.Errorf("check collection failed, err: %w", err)
	}
	if !has {
		if p.dim <= 0 {
			return fmt.Errorf("cannot create collection %s: embedding dimensions not configured", p.collection)
		}
		sch := entity.NewSchema().
			WithName(p.collection).
			WithDescription("scripture corpus chunks").
			WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxIDLength).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(fieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxContentLength)).
			WithField(entity.NewField().WithName(fieldMetadata).WithDataType(entity.FieldTypeJSON)).
			WithField(entity.NewField().WithName(fieldVector).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(p.dim)))
		if err := p.cli.CreateCollection(ctx, sch, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("create collection failed, err: %w", err)
		}
		idx, err := entity.NewIndexHNSW(p.metric, hnswM, hnswEfConstruction)
		if err != nil {
			return fmt.Errorf("build index config failed, err: %w", err)
		}
		if err := p.cli.CreateIndex(ctx, p.collection, fieldVector, idx, false); err != nil {
			return fmt.Errorf("create index failed, err: %w", err)
		}
		logger.Infof("milvus: created collection %s (dim=%d, metric=%s)", p.collection, p.dim, p.metric)
	}
	if err := p.cli.LoadCollection(ctx, p.collection, false); err != nil {
		return fmt.Errorf("load collection failed, err: %w", err)
	}
	return nil
}

func (p *milvusProvider) AddDocs(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, len(docs))
	contents := make([]string, len(docs))
	metas := make([][]byte, len(docs))
	vectors := make([][]float32, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		contents[i] = doc.Content
		meta := doc.Metadata
		if meta == nil {
			meta = map[string]interface{}{}
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s failed, err: %w", doc.ID, err)
		}
		metas[i] = raw
		vectors[i] = doc.Vector
	}
	_, err := p.cli.Insert(ctx, p.collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldContent, contents),
		entity.NewColumnJSONBytes(fieldMetadata, metas),
		entity.NewColumnFloatVector(fieldVector, p.dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("insert docs failed, err: %w", err)
	}
	if err := p.cli.Flush(ctx, p.collection, false); err != nil {
		return fmt.Errorf("flush failed, err: %w", err)
	}
	return nil
}

func (p *milvusProvider) SearchDocs(ctx context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error) {
	topK := 10
	if opts != nil && opts.TopK > 0 {
		topK = opts.TopK
	}
	sp, err := entity.NewIndexHNSWSearchParam(hnswEfSearch)
	if err != nil {
		return nil, fmt.Errorf("build search param failed, err: %w", err)
	}
	results, err := p.cli.Search(ctx, p.collection, nil, "",
		[]string{fieldID, fieldContent, fieldMetadata},
		[]entity.Vector{entity.FloatVector(vector)},
		fieldVector, p.metric, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("search failed, err: %w", err)
	}
	out := make([]schema.SearchResult, 0, topK)
	for _, rs := range results {
		idCol, _ := rs.IDs.(*entity.ColumnVarChar)
		contentCol := varCharColumn(rs.Fields.GetColumn(fieldContent))
		metaCol := jsonColumn(rs.Fields.GetColumn(fieldMetadata))
		for i := 0; i < rs.ResultCount; i++ {
			score := float64(rs.Scores[i])
			if opts != nil && opts.Threshold > 0 && score < opts.Threshold {
				continue
			}
			res := schema.SearchResult{Score: score}
			if idCol != nil && i < idCol.Len() {
				res.Document.ID = idCol.Data()[i]
			}
			if contentCol != nil && i < len(contentCol) {
				res.Document.Content = contentCol[i]
			}
			if metaCol != nil && i < len(metaCol) {
				var meta map[string]interface{}
				if err := json.Unmarshal(metaCol[i], &meta); err == nil {
					res.Document.Metadata = meta
				}
			}
			out = append(out, res)
		}
	}
	return out, nil
}

func (p *milvusProvider) ListDocs(ctx context.Context, limit int) ([]schema.Document, error) {
	rs, err := p.cli.Query(ctx, p.collection, nil, fmt.Sprintf("%s != ''", fieldID),
		[]string{fieldID, fieldContent, fieldMetadata}, client.WithLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("query docs failed, err: %w", err)
	}
	ids := varCharColumn(rs.GetColumn(fieldID))
	contents := varCharColumn(rs.GetColumn(fieldContent))
	metas := jsonColumn(rs.GetColumn(fieldMetadata))
	docs := make([]schema.Document, 0, len(ids))
	for i := range ids {
		doc := schema.Document{ID: ids[i]}
		if i < len(contents) {
			doc.Content = contents[i]
		}
		if i < len(metas) {
			var meta map[string]interface{}
			if err := json.Unmarshal(metas[i], &meta); err == nil {
				doc.Metadata = meta
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (p *milvusProvider) DeleteDocs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	expr := fmt.Sprintf("%s in [%s]", fieldID, strings.Join(quoted, ","))
	if err := p.cli.Delete(ctx, p.collection, "", expr); err != nil {
		return fmt.Errorf("delete docs failed, err: %w", err)
	}
	return nil
}

func (p *milvusProvider) Stats(ctx context.Context) (schema.Stats, error) {
	stats, err := p.cli.GetCollectionStatistics(ctx, p.collection)
	if err != nil {
		return schema.Stats{}, fmt.Errorf("collection statistics failed, err: %w", err)
	}
	var count int64
	if raw, ok := stats["row_count"]; ok {
		count, _ = strconv.ParseInt(raw, 10, 64)
	}
	return schema.Stats{Count: count, CollectionName: p.collection}, nil
}

func (p *milvusProvider) Close() error { return p.cli.Close() }

func varCharColumn(col entity.Column) []string {
	if c, ok := col.(*entity.ColumnVarChar); ok && c != nil {
		return c.Data()
	}
	return nil
}

func jsonColumn(col entity.Column) [][]byte {
	if c, ok := col.(*entity.ColumnJSONBytes); ok && c != nil {
		return c.Data()
	}
	return nil
}
