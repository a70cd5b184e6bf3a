// Package service orchestrates the record store, the secret cipher, and the
// handler registry into user-facing operations. It owns no persistent state:
// records live in the store, and decrypted passwords exist only for the
// single launch or export that needs them.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"connman/pkg/handler"
	"connman/pkg/secret"
	"connman/pkg/store"
)

// ErrMalformedImport indicates the import file is not a JSON array of
// connection records.
var ErrMalformedImport = errors.New("service: malformed import file")

// Service wires store, cipher, registry and prompter together. Close
// releases the store handle; callers defer it on every entry path.
type Service struct {
	store    *store.Store
	cipher   *secret.Cipher
	registry *handler.Registry
	prompter Prompter
	out      io.Writer
}

// New builds a Service. The prompter may be nil for operations that never
// prompt (list, search, connect, export).
func New(st *store.Store, cipher *secret.Cipher, reg *handler.Registry, prompter Prompter) *Service {
	return &Service{
		store:    st,
		cipher:   cipher,
		registry: reg,
		prompter: prompter,
		out:      os.Stdout,
	}
}

// SetOutput redirects user-facing messages; used by tests.
func (s *Service) SetOutput(w io.Writer) { s.out = w }

// Close releases the store handle.
func (s *Service) Close() error {
	return s.store.Close()
}

// Store exposes the underlying store for alias probes during prompting.
func (s *Service) Store() *store.Store { return s.store }

// Add prompts for all fields of a new connection and persists it with the
// password encrypted.
func (s *Service) Add() error {
	details, err := s.prompter.CollectFields(nil)
	if err != nil {
		return fmt.Errorf("service: add aborted: %w", err)
	}

	rec, err := s.recordFromDetails(details)
	if err != nil {
		return err
	}
	if err := s.store.Add(rec); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Connection added successfully.")
	return nil
}

// Edit re-prompts every field of an existing connection, keeping the stored
// password ciphertext when the password answer is left empty, and applies a
// partial update.
func (s *Service) Edit(aliasOrID string) error {
	rec, err := s.store.Get(aliasOrID)
	if err != nil {
		return err
	}

	// The prompter never sees the stored ciphertext.
	masked := *rec
	masked.Password = ""

	details, err := s.prompter.CollectFields(&masked)
	if err != nil {
		return fmt.Errorf("service: edit aborted: %w", err)
	}

	fields := store.Fields{
		Alias:      &details.Alias,
		Protocol:   &details.Protocol,
		HostOrIP:   &details.HostOrIP,
		Port:       &details.Port,
		Username:   &details.Username,
		SSHKeyPath: &details.SSHKeyPath,
		Domain:     &details.Domain,
		Resolution: &details.Resolution,
		Tag:        &details.Tag,
		Extras:     details.Extras,
	}
	if details.PasswordSet {
		enc, err := s.cipher.Encrypt(details.Password)
		if err != nil {
			return err
		}
		fields.Password = &enc
	}

	if err := s.store.Update(aliasOrID, fields); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Connection updated successfully.")
	return nil
}

// Delete removes a connection by alias or id. The operation is idempotent.
func (s *Service) Delete(aliasOrID string) error {
	if err := s.store.Delete(aliasOrID); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Connection %q deleted successfully.\n", aliasOrID)
	return nil
}

// List returns the summary projection, optionally filtered: an argument
// matching a registered protocol filters by protocol, anything else by tag.
func (s *Service) List(protocolOrTag string) ([]store.Summary, error) {
	sums, err := s.store.Summary()
	if err != nil {
		return nil, err
	}
	if protocolOrTag == "" {
		return sums, nil
	}

	var filtered []store.Summary
	if s.registry.Supports(protocolOrTag) {
		for _, sum := range sums {
			if strings.EqualFold(sum.Protocol, protocolOrTag) {
				filtered = append(filtered, sum)
			}
		}
	} else {
		for _, sum := range sums {
			if strings.EqualFold(sum.Tag, protocolOrTag) {
				filtered = append(filtered, sum)
			}
		}
	}
	return filtered, nil
}

// Search returns summaries matching a case-insensitive substring.
func (s *Service) Search(text string) ([]store.Summary, error) {
	return s.store.Search(text)
}

// Snapshot returns every record for the interactive browser.
func (s *Service) Snapshot() ([]store.ConnectionRecord, error) {
	return s.store.All()
}

// Connect resolves an alias-or-id, decrypts the password for the duration
// of the launch, and dispatches through the registry. Handler failures are
// recoverable per-attempt errors.
func (s *Service) Connect(ctx context.Context, aliasOrID string) error {
	rec, err := s.store.Get(aliasOrID)
	if err != nil {
		return err
	}

	ctor, err := s.registry.Resolve(rec.Protocol)
	if err != nil {
		return err
	}

	password := ""
	if rec.Password != "" {
		password, err = s.cipher.Decrypt(rec.Password)
		if err != nil {
			return fmt.Errorf("service: cannot decrypt password for %q: %w", rec.Alias, err)
		}
	}

	h, err := ctor(handler.Params{
		HostOrIP:   rec.HostOrIP,
		Port:       rec.Port,
		Username:   rec.Username,
		Password:   password,
		SSHKeyPath: rec.SSHKeyPath,
		Domain:     rec.Domain,
		Resolution: rec.Resolution,
		Extras:     rec.Extras,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Connecting to %q (%s)...\n", rec.Alias, rec.Protocol)
	if _, err := h.Connect(ctx); err != nil {
		return err
	}
	return nil
}

// recordFromDetails converts prompted details into a storable record,
// encrypting the password.
func (s *Service) recordFromDetails(d *Details) (*store.ConnectionRecord, error) {
	rec := &store.ConnectionRecord{
		Alias:      d.Alias,
		Protocol:   d.Protocol,
		HostOrIP:   d.HostOrIP,
		Port:       d.Port,
		Username:   d.Username,
		SSHKeyPath: d.SSHKeyPath,
		Domain:     d.Domain,
		Resolution: d.Resolution,
		Tag:        d.Tag,
		Extras:     d.Extras,
	}
	if d.PasswordSet && d.Password != "" {
		enc, err := s.cipher.Encrypt(d.Password)
		if err != nil {
			return nil, err
		}
		rec.Password = enc
	}
	return rec, nil
}

// Import reads a JSON array of records. Existing aliases require an
// interactive overwrite confirmation; declined records keep all stored
// fields. Plaintext passwords from the file are encrypted on store.
func (s *Service) Import(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("service: failed to read import file: %w", err)
	}

	var records []store.ConnectionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	if err := s.ImportRecords(records); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Connections imported from %s.\n", path)
	return nil
}

// ImportRecords stores a batch of already-parsed records under the same
// rules as Import: validation, overwrite confirmation, encryption.
func (s *Service) ImportRecords(records []store.ConnectionRecord) error {
	for i := range records {
		rec := &records[i]
		if err := store.ValidateAlias(rec.Alias); err != nil {
			fmt.Fprintf(s.out, "Skipping record %d: %v\n", i+1, err)
			continue
		}
		if !s.registry.Supports(rec.Protocol) {
			fmt.Fprintf(s.out, "Skipping %q: unsupported protocol %q\n", rec.Alias, rec.Protocol)
			continue
		}

		encrypted := ""
		if rec.Password != "" {
			enc, err := s.cipher.Encrypt(rec.Password)
			if err != nil {
				return err
			}
			encrypted = enc
		}

		exists, err := s.store.AliasExists(rec.Alias)
		if err != nil {
			return err
		}
		if exists {
			ok, err := s.prompter.Confirm(fmt.Sprintf("Alias %q already exists. Do you want to overwrite it?", rec.Alias))
			if err != nil {
				return fmt.Errorf("service: import aborted: %w", err)
			}
			if !ok {
				fmt.Fprintf(s.out, "Connection %q skipped.\n", rec.Alias)
				continue
			}
			fields := store.Fields{
				Protocol:   &rec.Protocol,
				HostOrIP:   &rec.HostOrIP,
				Port:       &rec.Port,
				Username:   &rec.Username,
				Password:   &encrypted,
				SSHKeyPath: &rec.SSHKeyPath,
				Domain:     &rec.Domain,
				Resolution: &rec.Resolution,
				Tag:        &rec.Tag,
				Extras:     rec.Extras,
			}
			if err := s.store.Update(rec.Alias, fields); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Connection %q overwritten.\n", rec.Alias)
			continue
		}

		toAdd := *rec
		toAdd.ID = 0
		toAdd.Password = encrypted
		if err := s.store.Add(&toAdd); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Connection %q added.\n", rec.Alias)
	}
	return nil
}

// Export writes all records as a JSON array with passwords decrypted so
// the file is immediately usable. Ids are stripped; a record whose
// ciphertext cannot be decrypted is exported with an empty password and
// reported, never aborting the batch.
func (s *Service) Export(path string) error {
	records, err := s.store.All()
	if err != nil {
		return err
	}

	for i := range records {
		if records[i].Password == "" {
			continue
		}
		plain, err := s.cipher.Decrypt(records[i].Password)
		if err != nil {
			if errors.Is(err, secret.ErrInvalidSecret) {
				fmt.Fprintf(os.Stderr, "warning: cannot decrypt password for %q, exporting without it\n", records[i].Alias)
				records[i].Password = ""
				continue
			}
			return err
		}
		records[i].Password = plain
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("service: failed to marshal export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("service: failed to write export file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "WARNING: exported passwords are plaintext, protect %s accordingly\n", path)
	fmt.Fprintf(s.out, "Connections exported to %s.\n", path)
	return nil
}
