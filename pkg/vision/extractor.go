package vision

import (
	"context"
	"io"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"

	"nextgen-hr-worker/pkg/apperror"
	"nextgen-hr-worker/pkg/gcs"
)

// Extractor turns a stored PDF into plain text through the Vision
// DOCUMENT_TEXT_DETECTION batch API. The batch job writes per-page JSON
// shards to a staging prefix; the extractor reads them back and joins the
// page texts.
type Extractor struct {
	annotator *vision.ImageAnnotatorClient
	storage   *storage.Client

	stagingURI string // gs://bucket/prefix/ owned by the vendor staging area
	timeout    time.Duration
}

func NewExtractor(ctx context.Context, stagingURI string, timeout time.Duration, opts ...option.ClientOption) (*Extractor, error) {
	if !strings.HasSuffix(stagingURI, "/") {
		stagingURI += "/"
	}
	if _, _, err := gcs.ParseURI(stagingURI); err != nil {
		return nil, err
	}

	annotator, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		annotator.Close()
		return nil, err
	}

	return &Extractor{
		annotator:  annotator,
		storage:    storageClient,
		stagingURI: stagingURI,
		timeout:    timeout,
	}, nil
}

// ExtractText runs the asynchronous OCR job for documentURI and returns the
// extracted pages joined by newline. Blocks until the job completes or the
// timeout elapses.
func (e *Extractor) ExtractText(ctx context.Context, documentURI string) (string, error) {
	sourceURI, err := gcs.NormalizeURI(documentURI)
	if err != nil {
		return "", apperror.Extraction("invalid document location", err)
	}

	// Unique destination per job so shards of concurrent jobs never mix.
	destinationURI := e.stagingURI + uuid.NewString() + "/"

	req := &visionpb.AsyncBatchAnnotateFilesRequest{
		Requests: []*visionpb.AsyncAnnotateFileRequest{
			{
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				InputConfig: &visionpb.InputConfig{
					GcsSource: &visionpb.GcsSource{Uri: sourceURI},
					MimeType:  "application/pdf",
				},
				OutputConfig: &visionpb.OutputConfig{
					GcsDestination: &visionpb.GcsDestination{Uri: destinationURI},
					BatchSize:      1,
				},
			},
		},
	}

	opCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	op, err := e.annotator.AsyncBatchAnnotateFiles(opCtx, req)
	if err != nil {
		return "", apperror.Extraction("submit OCR job for "+sourceURI, err)
	}
	if _, err := op.Wait(opCtx); err != nil {
		return "", apperror.Extraction("OCR job did not complete for "+sourceURI, err)
	}

	shards, err := e.readShards(ctx, destinationURI)
	if err != nil {
		return "", err
	}

	text, err := joinShards(shards)
	if err != nil {
		return "", apperror.Extraction("decode OCR output for "+sourceURI, err)
	}
	return text, nil
}

// readShards lists the staging prefix and returns the raw bytes of every
// JSON-typed shard, in object-name order as the listing yields them.
func (e *Extractor) readShards(ctx context.Context, destinationURI string) ([][]byte, error) {
	bucket, prefix, err := gcs.ParseURI(destinationURI)
	if err != nil {
		return nil, apperror.Extraction("invalid staging location", err)
	}

	var shards [][]byte
	it := e.storage.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperror.Extraction("list OCR output shards", err)
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}

		rc, err := e.storage.Bucket(bucket).Object(attrs.Name).NewReader(ctx)
		if err != nil {
			return nil, apperror.Extraction("open OCR output shard "+attrs.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, apperror.Extraction("read OCR output shard "+attrs.Name, err)
		}
		shards = append(shards, data)
	}
	return shards, nil
}

// joinShards decodes each shard as an AnnotateFileResponse and concatenates
// every non-empty per-page full text, joined by newline. Empty shards are
// skipped, preserving shard order.
func joinShards(shards [][]byte) (string, error) {
	unmarshal := protojson.UnmarshalOptions{DiscardUnknown: true}

	var pages []string
	for _, data := range shards {
		if len(data) == 0 {
			continue
		}
		var resp visionpb.AnnotateFileResponse
		if err := unmarshal.Unmarshal(data, &resp); err != nil {
			return "", err
		}
		for _, page := range resp.GetResponses() {
			if text := page.GetFullTextAnnotation().GetText(); text != "" {
				pages = append(pages, text)
			}
		}
	}
	return strings.Join(pages, "\n"), nil
}

func (e *Extractor) Close() error {
	storageErr := e.storage.Close()
	if err := e.annotator.Close(); err != nil {
		return err
	}
	return storageErr
}
