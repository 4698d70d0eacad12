package audit

import "slices"

// RecordTypeObjPID is the record the kernel emits for the object process of
// an audited operation.
const RecordTypeObjPID = "OBJ_PID"

// FieldObjectComm holds the command name of the object process
const FieldObjectComm = "ocomm"

// ProcessNames extracts the object command name of every OBJ_PID record, in
// record order. Records without a usable name are dropped.
func ProcessNames(records []Record) []string {
	var names []string
	for _, rec := range records {
		if rec.Type != RecordTypeObjPID {
			continue
		}
		name, err := rec.Decoded(FieldObjectComm)
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Candidates sorts and de-duplicates names. The result is lexicographic,
// not chronological.
func Candidates(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}
