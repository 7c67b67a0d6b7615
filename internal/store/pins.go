package store

import (
	"database/sql"

	"github.com/amoffat/supertag/internal/engineerr"
)

// CreatePin records an ordered tag-id sequence as listable even when its
// intersection is currently empty (spec.md §3 Pin, created by `mkdir -p`
// traversing a previously-nonexistent path).
func (s *Store) CreatePin(tagIDs []int64) (Pin, error) {
	var pin Pin
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO pin DEFAULT VALUES`)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "inserting pin", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "reading pin id", err)
		}
		for i, tagID := range tagIDs {
			if _, err := tx.Exec(`INSERT INTO pin_tag(pin_id, tag_id, position) VALUES (?, ?, ?)`, id, tagID, i); err != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "inserting pin tag", err)
			}
		}
		pin = Pin{ID: id, TagIDs: append([]int64(nil), tagIDs...)}
		return nil
	})
	return pin, err
}

// dropSupersededPins deletes any Pin whose tag set is now a subset of
// tagIDs ∪ {existing file tags for fileID} once fileID's tagging
// transaction commits — i.e. a Pin superseded by real data (spec.md §3
// Pin lifecycle, §8 "Pin supersession": "no Pin with prefix exactly
// {t1..tn} remains"). fileID of 0 skips the file-tag union (used by
// MergeTag, which has no single file driving the pin drop).
func dropSupersededPins(tx *sql.Tx, tagIDs []int64, fileID int64) error {
	tagSet := make(map[int64]bool, len(tagIDs))
	for _, id := range tagIDs {
		tagSet[id] = true
	}
	if fileID != 0 {
		rows, err := tx.Query(`SELECT tag_id FROM file_tag WHERE file_id = ?`, fileID)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "listing file tags for pin check", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return engineerr.Wrap(engineerr.ExternalIOError, "scanning file tag", err)
			}
			tagSet[id] = true
		}
		rows.Close()
	}

	rows, err := tx.Query(`SELECT id FROM pin`)
	if err != nil {
		return engineerr.Wrap(engineerr.ExternalIOError, "listing pins", err)
	}
	var pinIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return engineerr.Wrap(engineerr.ExternalIOError, "scanning pin", err)
		}
		pinIDs = append(pinIDs, id)
	}
	rows.Close()

	for _, pinID := range pinIDs {
		tagRows, err := tx.Query(`SELECT tag_id FROM pin_tag WHERE pin_id = ?`, pinID)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "listing pin tags", err)
		}
		var pinTags []int64
		subset := true
		for tagRows.Next() {
			var tagID int64
			if err := tagRows.Scan(&tagID); err != nil {
				tagRows.Close()
				return engineerr.Wrap(engineerr.ExternalIOError, "scanning pin tag", err)
			}
			pinTags = append(pinTags, tagID)
			if !tagSet[tagID] {
				subset = false
			}
		}
		tagRows.Close()
		if subset && len(pinTags) > 0 {
			if _, err := tx.Exec(`DELETE FROM pin WHERE id = ?`, pinID); err != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "dropping superseded pin", err)
			}
		}
	}
	return nil
}

// PinsWithPrefix returns every Pin whose tag-id set, as a set, has
// prefixPositive as a proper subset (a Pin no longer than prefixPositive
// is never returned) — used by readdir to surface "any extant
// sub-pins whose prefix equals expr.positive" (spec.md §4.3 readdir).
func (s *Store) PinsWithPrefix(prefixPositive []int64) ([]Pin, error) {
	rows, err := s.db.Query(`SELECT id FROM pin`)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.ExternalIOError, "listing pins", err)
	}
	var pinIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, engineerr.Wrap(engineerr.ExternalIOError, "scanning pin", err)
		}
		pinIDs = append(pinIDs, id)
	}
	rows.Close()

	var out []Pin
	for _, pinID := range pinIDs {
		tagRows, err := s.db.Query(`SELECT tag_id FROM pin_tag WHERE pin_id = ? ORDER BY position ASC`, pinID)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.ExternalIOError, "listing pin tags", err)
		}
		var tagIDs []int64
		for tagRows.Next() {
			var tagID int64
			if err := tagRows.Scan(&tagID); err != nil {
				tagRows.Close()
				return nil, engineerr.Wrap(engineerr.ExternalIOError, "scanning pin tag", err)
			}
			tagIDs = append(tagIDs, tagID)
		}
		tagRows.Close()

		if len(tagIDs) <= len(prefixPositive) {
			continue
		}
		containsAll := true
		for _, id := range prefixPositive {
			if !contains(tagIDs, id) {
				containsAll = false
				break
			}
		}
		if containsAll {
			out = append(out, Pin{ID: pinID, TagIDs: tagIDs})
		}
	}
	return out, nil
}

func contains(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// DropPin removes a pin explicitly (e.g. an administrative cleanup path;
// the common case is dropSupersededPins firing transactionally on link).
func (s *Store) DropPin(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM pin WHERE id = ?`, id)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "dropping pin", err)
		}
		return nil
	})
}
