//go:build ignore

// Package main generates a synthetic evidence corpus for benchmarking the
// hybrid retrieval core.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// documentTemplate produces a memo-style document: the bulk of real-world
// case evidence indexed via `evidence-core index --type document`.
var documentTemplate = `MEMORANDUM

Re: %s v. %s (Matter No. %s)
Date: %s
Author: %s, %s

SUMMARY

This memorandum addresses %s as it relates to the above-captioned matter.
Counsel reviewed the underlying %s and concluded that the %s provision
at issue governs the parties' obligations going forward.

BACKGROUND

On %s, %s entered into an agreement concerning %s. The agreement was
later amended to address %s following a dispute over %s. %s has
asserted that the amendment is unenforceable, citing %s.

ANALYSIS

Under the governing %s, a party asserting %s must show (1) that the
underlying obligation was breached, and (2) that the breach caused
damages traceable to %s. The available record, including the %s
produced in discovery, supports a finding that %s occurred no later
than %s.

CONCLUSION

Counsel recommends proceeding with %s and preserving all claims related
to %s pending further discovery.
`

// communicationTemplate produces a short email-style record: the other
// common evidence shape, chunked the same way as documents but shorter and
// more conversational.
var communicationTemplate = `From: %s <%s>
To: %s <%s>
Subject: %s
Date: %s

%s,

Following up on %s. I spoke with %s yesterday about %s and they
confirmed that %s is still outstanding as of %s.

Can you pull together the %s before our call on %s? I want to make
sure we're aligned on %s before it goes to %s.

Thanks,
%s
`

var (
	parties = []string{
		"Hartwell Logistics Inc.", "Meridian Capital Partners", "Okafor Holdings LLC",
		"Brightline Manufacturing Corp.", "Castellan Trust", "Del Rio & Sons",
		"Vantage Point Ventures", "Ashworth Family Trust", "Corwin Materials Co.",
		"Fennimore Data Systems",
	}
	people = []string{
		"J. Alvarez", "M. Chen", "R. Okafor", "S. Whitfield", "T. Brennan",
		"A. Castellan", "L. Marchetti", "D. Hartwell", "K. Fennimore", "P. Sandoval",
	}
	roles = []string{
		"Senior Associate", "Partner", "Paralegal", "Of Counsel", "General Counsel",
	}
	subjects = []string{
		"the indemnification clause", "the force majeure provision", "the escrow release",
		"the non-compete covenant", "the change-of-control trigger", "the arbitration clause",
		"the warranty disclaimer", "the termination notice period", "the assignment restriction",
		"the audit rights provision",
	}
	docs = []string{
		"purchase agreement", "master services agreement", "settlement term sheet",
		"licensing agreement", "employment agreement", "loan and security agreement",
		"board resolution", "asset purchase agreement", "non-disclosure agreement",
		"statement of work",
	}
	actions = []string{
		"a material breach", "an anticipatory repudiation", "a good-faith dispute",
		"a notice of default", "a cure period expiration", "a disputed offset",
	}
)

func randomWord(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

func randomDate() string {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	d := base.AddDate(0, 0, rand.Intn(900))
	return d.Format("January 2, 2006")
}

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	subdirs := []string{"documents", "communications"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d evidence files in %s...\n", *numFiles, *outputDir)

	// Documents dominate a typical production; communications make up the
	// rest. Transcript evidence is excluded here since it requires
	// structured Segments a flat text file can't carry - see index.go's
	// --type flag and intake.DropFolderWatcher's ingestPath comment.
	docFiles := *numFiles * 70 / 100
	commFiles := *numFiles - docFiles

	generated := 0
	for i := 0; i < docFiles; i++ {
		if err := generateDocumentFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating document %d: %v\n", i, err)
			continue
		}
		generated++
	}
	for i := 0; i < commFiles; i++ {
		if err := generateCommunicationFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating communication %d: %v\n", i, err)
			continue
		}
		generated++
	}

	fmt.Printf("Generated %d files successfully.\n", generated)
}

func generateDocumentFile(index int) error {
	plaintiff := randomWord(parties)
	defendant := randomWord(parties)
	matterNo := fmt.Sprintf("%d-CV-%05d", 2000+rand.Intn(5), rand.Intn(99999))
	author := randomWord(people)
	role := randomWord(roles)
	topic := randomWord(subjects)
	doc := randomWord(docs)
	provision := randomWord(subjects)
	effectiveDate := randomDate()
	party1 := randomWord(parties)
	subjectMatter := randomWord(docs)
	amendmentTopic := randomWord(subjects)
	disputeTopic := randomWord(actions)
	party2 := randomWord(parties)
	citation := fmt.Sprintf("%s §%d", randomWord(docs), rand.Intn(20)+1)
	action := randomWord(actions)
	breachDate := randomDate()
	recommendation := randomWord(actions)

	content := fmt.Sprintf(documentTemplate,
		plaintiff, defendant, matterNo, randomDate(), author, role,
		topic, doc, provision,
		effectiveDate, party1, subjectMatter, amendmentTopic, disputeTopic, party2, citation,
		doc, action, action, doc, action, breachDate,
		recommendation, topic,
	)

	filename := filepath.Join(*outputDir, "documents", fmt.Sprintf("memo_%05d.txt", index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateCommunicationFile(index int) error {
	sender := randomWord(people)
	senderEmail := fmt.Sprintf("%s@example-law.com", sanitizeForEmail(sender))
	recipient := randomWord(people)
	recipientEmail := fmt.Sprintf("%s@example-law.com", sanitizeForEmail(recipient))
	subject := randomWord(subjects)
	topic := randomWord(subjects)
	contact := randomWord(people)
	item := randomWord(docs)
	outstanding := randomWord(actions)

	content := fmt.Sprintf(communicationTemplate,
		sender, senderEmail, recipient, recipientEmail, subject, randomDate(),
		recipient, topic, contact, topic, outstanding, randomDate(),
		item, randomDate(), subject, randomWord(people),
		sender,
	)

	filename := filepath.Join(*outputDir, "communications", fmt.Sprintf("email_%05d.txt", index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func sanitizeForEmail(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+32)
		case c == '.' || c == ' ':
			out = append(out, '.')
		}
	}
	return string(out)
}
