package inmemdb

import (
	"sync"

	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/owner"
	"github.com/parikshahq/pariksha/core/student"
	"github.com/parikshahq/pariksha/core/typing"
)

// DB is an in-memory document store used in DEV/TEST mode and as the test
// fixture. A single lock guards all tables so multi-document mutations
// (submissions, cascading deletes) are atomic, mirroring what the SQL store
// does with transactions.
type DB struct {
	mu sync.RWMutex

	owners      map[string]*owner.Owner
	institutes  map[string]*institute.Institute
	students    map[string]*student.Student
	exams       map[string]*exam.Exam
	questions   map[string]*exam.Question
	typingTests map[string]*typing.TypingTest
}

func Open() (*DB, error) {
	return &DB{
		owners:      make(map[string]*owner.Owner),
		institutes:  make(map[string]*institute.Institute),
		students:    make(map[string]*student.Student),
		exams:       make(map[string]*exam.Exam),
		questions:   make(map[string]*exam.Question),
		typingTests: make(map[string]*typing.TypingTest),
	}, nil
}

func removeString(ss []string, s string) []string {
	out := ss[:0]
	for _, v := range ss {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}
