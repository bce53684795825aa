package dynamo

// DynamoDB attribute and index names shared by the credential repo and Bootstrap.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldCredentialID      = "credential_id"
	fieldEmail             = "email"
	fieldIsVerified        = "is_verified"
	fieldConfirmationToken = "confirmation_token"

	indexConfirmationToken = "confirmation_token-index"
)
