package models

import (
	"fmt"
	"strconv"
	"strings"
)

// nextDocumentNumber returns PREFIX-YYYY-NNN, one past the highest number used
// this year. The stock lock keeps two writers from taking the same number and
// the unique index on column backs that up.
func (tx *Tx) nextDocumentNumber(model interface{}, column string, prefix string) (string, error) {
	head := fmt.Sprintf("%s-%d-", prefix, tx.now.Year())
	var numbers []string
	if err := tx.db.Model(model).Where(column+" LIKE ?", head+"%").Pluck(column, &numbers).Error; err != nil {
		return "", err
	}
	next := 1
	for _, n := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(n, head))
		if err == nil && seq >= next {
			next = seq + 1
		}
	}
	return fmt.Sprintf("%s%03d", head, next), nil
}
