package vectorstore

import "github.com/google/uuid"

// namespace is a fixed, arbitrary UUID used as the base for every derived
// point id, so identical (logicalID, contentHash) pairs always produce the
// same point id across runs and across machines.
var namespace = uuid.NameSpaceDNS

// PointID derives a deterministic point id from a chunk's logical id and
// content hash. Re-indexing unchanged content reproduces the same id,
// turning re-upserts into no-ops rather than duplicate points.
func PointID(logicalID, contentHash string) string {
	return uuid.NewSHA1(namespace, []byte(logicalID+":"+contentHash)).String()
}
