package usecase

import (
	"fmt"

	"labrec/internal/adapter/analyzer"
	"labrec/internal/adapter/embedding"
	"labrec/internal/adapter/memstore"
	"labrec/internal/adapter/retriever"
	"labrec/internal/adapter/vectorstore"
	"labrec/internal/domain"
	"labrec/internal/port"
)

func newTestRetrieveUseCase() *RetrieveUseCase {
	tok := analyzer.NewTokenizer(true, analyzer.WithCJKBigrams())
	return NewRetrieveUseCase(func() port.Retriever {
		return retriever.NewHybridRetriever(
			retriever.NewSemanticRetriever(
				embedding.NewHashEmbedder(tok, 512),
				func(dim int) (port.VectorStore, error) {
					return vectorstore.NewChromemStore("labs", dim)
				},
				16,
			),
			retriever.NewBM25Retriever(memstore.NewMemoryStore(), tok, 1.2, 0.75),
			retriever.Options{DenseWeight: 1, SparseWeight: 0, RRFK: 60},
			nil,
		)
	}, nil)
}

var labTopics = []string{
	"coral reef ecology ocean acidification",
	"graph neural networks recommendation systems",
	"superconducting qubits quantum error correction",
	"autonomous driving lidar perception",
	"polymer chemistry biodegradable plastics",
	"medieval manuscripts paleography",
	"volcanic seismology magma dynamics",
	"protein crystallography cryo electron microscopy",
	"speech recognition acoustic modeling",
	"urban traffic simulation transport planning",
}

// testRecords returns n records; record i studies labTopics[i].
func testRecords(n int) []domain.Record {
	records := make([]domain.Record, n)
	for i := range records {
		records[i] = domain.Record{
			Index:              i,
			ResearchInstitute:  fmt.Sprintf("Institute %d", i),
			Department:         fmt.Sprintf("Department %d", i),
			LabName:            fmt.Sprintf("Lab %d", i),
			ResearchKeywords:   labTopics[i],
			ResearchTopics:     labTopics[i],
			ResearchTechniques: domain.Unknown,
			LabDescription:     "We study " + labTopics[i],
			ProfessorName:      fmt.Sprintf("Prof %d", i),
		}
	}
	return records
}

func verdictJSON(relevant bool, reason string) string {
	return fmt.Sprintf(`{"relevant":%t,"reason":%q}`, relevant, reason)
}
