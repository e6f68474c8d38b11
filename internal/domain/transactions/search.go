package transactions

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
)

// searchDocument is the indexed projection of a stored transaction.
type searchDocument struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Bank        string `json:"bank"`
	Card        string `json:"card"`
}

// SearchHit is a matching transaction with its relevance score.
type SearchHit struct {
	Transaction StoredTransaction
	Score       float64
}

// SearchIndex is a full-text index over transaction descriptions. Hits are
// resolved against the transactions indexed through the same value.
type SearchIndex struct {
	index   bleve.Index
	indexMu sync.RWMutex
	byID    map[string]StoredTransaction
}

// NewSearchIndex creates an index at path, or in memory when path is empty.
// An existing index at path is opened as is.
func NewSearchIndex(path string) (*SearchIndex, error) {
	var (
		index bleve.Index
		err   error
	)
	if path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, buildIndexMapping())
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}
	return &SearchIndex{index: index, byID: make(map[string]StoredTransaction)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = simple.Name

	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("description", text)
	doc.AddFieldMappingsAt("category", kw)
	doc.AddFieldMappingsAt("bank", kw)
	doc.AddFieldMappingsAt("card", kw)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = simple.Name
	return m
}

// Index adds or replaces items in one batch.
func (si *SearchIndex) Index(items ...StoredTransaction) error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	batch := si.index.NewBatch()
	for _, it := range items {
		id := it.ID.String()
		doc := searchDocument{
			Description: it.Description,
			Category:    string(it.CategoryOrOther()),
			Bank:        it.Bank,
			Card:        it.CardNumber,
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", id, err)
		}
		si.byID[id] = it
	}
	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Search matches words of q against descriptions with one edit of typo
// tolerance.
func (si *SearchIndex) Search(q string, limit int) ([]SearchHit, error) {
	mq := bleve.NewMatchQuery(q)
	mq.SetField("description")
	mq.SetFuzziness(1)
	return si.run(mq, limit, 10)
}

// SearchPrefix matches description words starting with prefix.
func (si *SearchIndex) SearchPrefix(prefix string, limit int) ([]SearchHit, error) {
	pq := bleve.NewPrefixQuery(prefix)
	pq.SetField("description")
	return si.run(pq, limit, 10)
}

// SearchAdvanced accepts bleve query-string syntax, for example
// "+пятерочка -возврат" or "category:GROCERIES".
func (si *SearchIndex) SearchAdvanced(queryString string, limit int) ([]SearchHit, error) {
	return si.run(bleve.NewQueryStringQuery(queryString), limit, 10)
}

// SearchByCategory returns indexed transactions in category.
func (si *SearchIndex) SearchByCategory(category statement.Category, limit int) ([]SearchHit, error) {
	tq := bleve.NewTermQuery(string(category))
	tq.SetField("category")
	return si.run(tq, limit, 100)
}

func (si *SearchIndex) run(q query.Query, limit, defaultLimit int) ([]SearchHit, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = defaultLimit
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	res, err := si.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		tx, ok := si.byID[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{Transaction: tx, Score: h.Score})
	}
	return hits, nil
}

// DocumentCount returns the number of indexed transactions.
func (si *SearchIndex) DocumentCount() (uint64, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()
	return si.index.DocCount()
}

// Close closes the index.
func (si *SearchIndex) Close() error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()
	if si.index != nil {
		return si.index.Close()
	}
	return nil
}
