package interview

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the top-level structure of an interview seed YAML file, used to
// populate the in-memory store in development.
//
// Example:
//
//	interviews:
//	  - id: "iv-1"
//	    candidate_name: "Ada Lovelace"
//	    candidate_email: "ada@example.com"
//	    candidate_secret: "change-me"
//	    company_name: "Voxhire"
//	    job_description: "Backend engineer, Go."
type SeedFile struct {
	Interviews []SeedRecord `yaml:"interviews"`
}

// SeedRecord declares one scheduled interview.
type SeedRecord struct {
	ID              string `yaml:"id"`
	CandidateName   string `yaml:"candidate_name"`
	CandidateEmail  string `yaml:"candidate_email"`
	CandidateSecret string `yaml:"candidate_secret"`
	CompanyName     string `yaml:"company_name"`
	JobDescription  string `yaml:"job_description"`
}

// validate collects everything wrong with a seed record.
func (r SeedRecord) validate() error {
	var errs []error
	if r.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if r.CandidateEmail == "" {
		errs = append(errs, errors.New("candidate_email is required"))
	}
	if r.CandidateSecret == "" {
		errs = append(errs, errors.New("candidate_secret is required"))
	}
	return errors.Join(errs...)
}

// LoadSeedFile reads and parses an interview seed YAML file from disk.
func LoadSeedFile(path string) (*SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("interview: open seed file %q: %w", path, err)
	}
	defer f.Close()

	sf, err := LoadSeedFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("interview: parse seed file %q: %w", path, err)
	}
	return sf, nil
}

// LoadSeedFromReader parses seed YAML from an [io.Reader]. The reader is
// consumed entirely; the caller is responsible for closing it.
func LoadSeedFromReader(r io.Reader) (*SeedFile, error) {
	var sf SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("interview: decode seed yaml: %w", err)
	}
	return &sf, nil
}

// ImportSeed inserts all records from a parsed [SeedFile] into store. Returns
// the number of records imported. A validation failure aborts the import and
// returns the count so far.
func ImportSeed(store *MemStore, sf *SeedFile) (int, error) {
	if sf == nil {
		return 0, errors.New("interview: seed file must not be nil")
	}
	for i, sr := range sf.Interviews {
		if err := sr.validate(); err != nil {
			return i, fmt.Errorf("interview: seed record %d (%s): %w", i, sr.CandidateEmail, err)
		}
		store.Put(&Record{
			ID:              sr.ID,
			CandidateName:   sr.CandidateName,
			CandidateEmail:  sr.CandidateEmail,
			CandidateSecret: sr.CandidateSecret,
			CompanyName:     sr.CompanyName,
			JobDescription:  sr.JobDescription,
		})
	}
	return len(sf.Interviews), nil
}
