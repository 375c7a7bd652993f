package usecase

// RankRelated is exported for testing
var RankRelated = rankRelated

// Warning texts are exported for testing
const (
	WarnEmptyTranscript          = warnEmptyTranscript
	WarnReflectionCallFailed     = warnReflectionCallFailed
	WarnReflectionMalformed      = warnReflectionMalformed
	WarnReflectionAmbiguous      = warnReflectionAmbiguous
	WarnReflectionEventStore     = warnReflectionEventStore
	WarnEmbeddingCallFailed      = warnEmbeddingCallFailed
	WarnCostLedgerPersistence    = warnCostLedgerPersistence
	WarnTranscriptionRetryLocal  = warnTranscriptionRetryLocal
	WarnTranscriptionLocalFailed = warnTranscriptionLocalFailed
	WarnTranscriptionUnavailable = warnTranscriptionUnavailable
	WarnAudioStoreFailed         = warnAudioStoreFailed
)
