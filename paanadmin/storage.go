package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	uuid "github.com/satori/go.uuid"
)

// NOTE: this uses a service account, you must set a environment variable
// see https://cloud.google.com/storage/docs/reference/libraries

const (
	ATTACHMENTS_BUCKETNAME = "paan-agency-documents"
	ATTACHMENTS_URL        = "https://storage.googleapis.com/paan-agency-documents/"
)

func bytesToGCP(bucketName, objectName string, data []byte, setObjectPolicies bool) error {
	ctx := context.Background()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return err
	}

	bucket := client.Bucket(bucketName)

	obj := bucket.Object(objectName)
	w := obj.NewWriter(ctx)

	if setObjectPolicies {
		w.CacheControl = "no-cache"
		w.ACL = []storage.ACLRule{{Entity: storage.AllUsers, Role: storage.RoleReader}}
	}

	r := bytes.NewReader(data)
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if err != nil && err != io.EOF {
			ErrorLog.Printf("%v\n", err)
			break
		}
		if n == 0 {
			break
		}

		if _, err := w.Write(buf[:n]); err != nil {
			ErrorLog.Printf("%v\n", err)
			break
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	return nil
}

// uploadCandidateDocuments stores base64-encoded agency documents and returns
// their public URLs. Upload failures are logged per document, not fatal to
// the submission.
func uploadCandidateDocuments(referenceNumber string, documents map[string]string) []interface{} {
	urls := []interface{}{}

	if !env.Production {
		return urls
	}

	for originalName, b64 := range documents {
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			ErrorLog.Println("uploadCandidateDocuments decode err for " + originalName + ": " + err.Error())
			continue
		}

		suffix, err := uuid.NewV4()
		if err != nil {
			ErrorLog.Println("uploadCandidateDocuments uuid err: " + err.Error())
			continue
		}

		objectName := fmt.Sprintf("%s-%s-%s", referenceNumber, suffix.String(), originalName)

		err = bytesToGCP(ATTACHMENTS_BUCKETNAME, objectName, decoded, true)
		if err != nil {
			ErrorLog.Println("uploadCandidateDocuments upload err for " + originalName + ": " + err.Error())
			continue
		}

		InfoLog.Println("document uploaded: " + objectName)
		urls = append(urls, ATTACHMENTS_URL+objectName)
	}

	return urls
}
