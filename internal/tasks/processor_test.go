package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/internal/extraction"
	"legalreview/internal/parser"
	"legalreview/internal/storage"
	"legalreview/internal/tasks"
	"legalreview/internal/testhelpers"
	"legalreview/models"
)

const contractText = "MASTER SERVICES AGREEMENT between Acme Ltd and Beta LLC, effective 1 March 2024. Fee: 12,000."

const contractReply = "```json\n" + `[
  {"field_id": "party_a", "raw_value": "Acme Ltd", "confidence_score": 0.92, "citations": [{"source": "page 1", "text_snippet": "between Acme Ltd"}]},
  {"field_id": "effective_date", "raw_value": "1 March 2024", "confidence_score": 0.85},
  {"field_id": "fee", "raw_value": "12,000", "confidence_score": 0.8}
]` + "\n```"

var _ = Describe("TaskProcessor", func() {
	var (
		dbConn   *gorm.DB
		store    *storage.LocalStorage
		model    *testhelpers.FakeModel
		enqueuer *testhelpers.FakeEnqueuer
		p        *tasks.TaskProcessor
		ctx      context.Context
	)

	BeforeEach(func() {
		var err error
		dbConn, err = testhelpers.OpenTestDB()
		if err != nil {
			Skip("database not available: " + err.Error())
		}
		testhelpers.CleanupDB(dbConn)

		store, err = storage.NewLocalStorage(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		logger := zap.NewNop().Sugar()
		model = &testhelpers.FakeModel{Reply: contractReply}
		enqueuer = testhelpers.NewFakeEnqueuer()
		p = &tasks.TaskProcessor{
			DB:        dbConn,
			Storage:   store,
			Parser:    parser.New(logger),
			Extractor: extraction.NewExtractor(model, 2, logger),
			Enqueuer:  enqueuer,
			Logger:    logger,
		}
		ctx = context.Background()
	})

	parseTask := func(documentID uuid.UUID) *asynq.Task {
		task, err := tasks.NewParseDocumentTask(documentID)
		Expect(err).NotTo(HaveOccurred())
		return task
	}

	extractTask := func(documentID, templateID uuid.UUID) *asynq.Task {
		task, err := tasks.NewExtractDocumentTask(documentID, templateID)
		Expect(err).NotTo(HaveOccurred())
		return task
	}

	Describe("HandleParseDocumentTask", func() {
		It("stores the text and queues extraction for templated projects", func() {
			template := testhelpers.CreateTemplate(dbConn, "MSA")
			project := testhelpers.CreateProject(dbConn, "Vendors", &template.ID)
			document := testhelpers.CreateDocument(dbConn, store, project.ID, "msa.txt", contractText, models.UploadUploaded)

			Expect(p.HandleParseDocumentTask(ctx, parseTask(document.ID))).To(Succeed())

			stored, err := models.GetDocumentByID(dbConn, document.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.UploadStatus).To(Equal(models.UploadParsed))
			Expect(*stored.ParsedText).To(Equal(contractText))
			Expect(stored.FileMetadata).To(HaveKeyWithValue("original_filename", "msa.txt"))
			Expect(stored.FileMetadata).To(HaveKeyWithValue("encoding", "utf-8"))
			Expect(stored.ErrorMessage).To(BeNil())

			queued := enqueuer.Queued(tasks.TypeExtractDocument)
			Expect(queued).To(HaveLen(1))
			Expect(queued[0].DocumentID).To(Equal(document.ID))
			Expect(queued[0].TemplateID).To(Equal(template.ID))
		})

		It("does not queue extraction without a template", func() {
			project := testhelpers.CreateProject(dbConn, "Loose", nil)
			document := testhelpers.CreateDocument(dbConn, store, project.ID, "note.txt", "Side letter.", models.UploadUploaded)

			Expect(p.HandleParseDocumentTask(ctx, parseTask(document.ID))).To(Succeed())
			Expect(enqueuer.Tasks).To(BeEmpty())
		})

		It("fails without retry when the file cannot be parsed", func() {
			project := testhelpers.CreateProject(dbConn, "Broken", nil)
			document := testhelpers.CreateDocument(dbConn, store, project.ID, "scan.pdf", "not a pdf", models.UploadUploaded)

			err := p.HandleParseDocumentTask(ctx, parseTask(document.ID))
			Expect(errors.Is(err, asynq.SkipRetry)).To(BeTrue())

			stored, err := models.GetDocumentByID(dbConn, document.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.UploadStatus).To(Equal(models.UploadFailed))
			Expect(*stored.ErrorMessage).To(HavePrefix("Parsing failed: Invalid or corrupted PDF file"))
		})

		It("fails without retry when the stored file is gone", func() {
			project := testhelpers.CreateProject(dbConn, "Missing", nil)
			document := testhelpers.CreateDocument(dbConn, nil, project.ID, "gone.txt", "", models.UploadUploaded)

			err := p.HandleParseDocumentTask(ctx, parseTask(document.ID))
			Expect(errors.Is(err, asynq.SkipRetry)).To(BeTrue())

			stored, err := models.GetDocumentByID(dbConn, document.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.ErrorMessage).To(HavePrefix("Parsing failed: File not found"))
		})

		It("completes quietly for deleted documents", func() {
			Expect(p.HandleParseDocumentTask(ctx, parseTask(uuid.New()))).To(Succeed())
		})

		It("skips retries on malformed payloads", func() {
			err := p.HandleParseDocumentTask(ctx, asynq.NewTask(tasks.TypeParseDocument, []byte("{")))
			Expect(errors.Is(err, asynq.SkipRetry)).To(BeTrue())
		})
	})

	Describe("HandleExtractDocumentTask", func() {
		var (
			template *models.FieldTemplate
			project  *models.Project
		)

		BeforeEach(func() {
			template = testhelpers.CreateTemplate(dbConn, "MSA")
			project = testhelpers.CreateProject(dbConn, "Vendors", &template.ID)
		})

		It("stores normalized fields on a completed record", func() {
			document := testhelpers.CreateDocument(dbConn, store, project.ID, "msa.txt", contractText, models.UploadParsed)

			Expect(p.HandleExtractDocumentTask(ctx, extractTask(document.ID, template.ID))).To(Succeed())

			record, err := models.GetExtractedRecord(dbConn, document.ID, template.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ExtractionStatus).To(Equal(models.ExtractionCompleted))
			Expect(record.TemplateVersion).To(Equal(1))
			Expect(record.ExtractedFields).To(HaveLen(3))

			date, ok := record.Field("effective_date")
			Expect(ok).To(BeTrue())
			Expect(*date.NormalizedValue).To(Equal("2024-03-01"))

			fee, _ := record.Field("fee")
			Expect(*fee.NormalizedValue).To(Equal("12000"))

			Expect(model.Prompts).To(HaveLen(1))
			Expect(model.Prompts[0]).To(ContainSubstring("Acme Ltd and Beta LLC"))
		})

		It("reuses the record on re-extraction", func() {
			document := testhelpers.CreateDocument(dbConn, store, project.ID, "msa.txt", contractText, models.UploadParsed)

			Expect(p.HandleExtractDocumentTask(ctx, extractTask(document.ID, template.ID))).To(Succeed())
			Expect(p.HandleExtractDocumentTask(ctx, extractTask(document.ID, template.ID))).To(Succeed())

			records, err := models.ListDocumentExtractions(dbConn, document.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})

		It("marks the record failed without retry when the model answer is unusable", func() {
			model.Reply = "I cannot help with that."
			document := testhelpers.CreateDocument(dbConn, store, project.ID, "msa.txt", contractText, models.UploadParsed)

			err := p.HandleExtractDocumentTask(ctx, extractTask(document.ID, template.ID))
			Expect(errors.Is(err, asynq.SkipRetry)).To(BeTrue())

			record, err := models.GetExtractedRecord(dbConn, document.ID, template.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ExtractionStatus).To(Equal(models.ExtractionFailed))
			Expect(*record.ErrorMessage).To(HavePrefix("Extraction failed: "))
		})

		It("leaves unparsed documents alone", func() {
			document := testhelpers.CreateDocument(dbConn, store, project.ID, "msa.txt", contractText, models.UploadUploaded)

			Expect(p.HandleExtractDocumentTask(ctx, extractTask(document.ID, template.ID))).To(Succeed())

			record, err := models.GetExtractedRecord(dbConn, document.ID, template.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(BeNil())
			Expect(model.Prompts).To(BeEmpty())
		})
	})

	Describe("HandleReextractProjectTask", func() {
		It("queues every parsed document", func() {
			template := testhelpers.CreateTemplate(dbConn, "MSA")
			project := testhelpers.CreateProject(dbConn, "Vendors", &template.ID)
			parsed := testhelpers.CreateDocument(dbConn, store, project.ID, "a.txt", contractText, models.UploadParsed)
			testhelpers.CreateDocument(dbConn, store, project.ID, "b.txt", contractText, models.UploadFailed)

			task, err := tasks.NewReextractProjectTask(project.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.HandleReextractProjectTask(ctx, task)).To(Succeed())

			queued := enqueuer.Queued(tasks.TypeExtractDocument)
			Expect(queued).To(HaveLen(1))
			Expect(queued[0].DocumentID).To(Equal(parsed.ID))
		})
	})
})

var _ = Describe("RetryDelay", func() {
	It("waits per task type", func() {
		payload, _ := json.Marshal(tasks.ParseDocumentPayload{DocumentID: uuid.New()})
		Expect(tasks.RetryDelay(1, errors.New("x"), asynq.NewTask(tasks.TypeParseDocument, payload))).To(Equal(60 * time.Second))
		Expect(tasks.RetryDelay(1, errors.New("x"), asynq.NewTask(tasks.TypeExtractDocument, payload))).To(Equal(120 * time.Second))
	})
})

var _ = Describe("TaskTypeName", func() {
	It("names the task types for clients", func() {
		Expect(tasks.TaskTypeName(tasks.TypeExtractDocument)).To(Equal("document_extraction"))
		Expect(tasks.TaskTypeName(tasks.TypeReextractProject)).To(Equal("project_extraction"))
		Expect(tasks.TaskTypeName("other")).To(Equal("other"))
	})
})
