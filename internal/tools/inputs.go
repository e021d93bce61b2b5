package tools

// CheckBalanceInput are the arguments of check_wallet_balance.
type CheckBalanceInput struct {
	Address string `json:"address"`
}

// SendFundsInput are the arguments of send_funds_to_address_or_ens.
type SendFundsInput struct {
	Recipient   string `json:"recipient"`
	AmountInEth text   `json:"amountInEth"`
}

// DeployFundraiserInput are the arguments of deploy_fundraiser_contract.
type DeployFundraiserInput struct {
	BeneficiaryAddress string `json:"beneficiaryAddress"`
	GoalAmount         text   `json:"goalAmount"`
	DurationInSeconds  text   `json:"durationInSeconds,omitempty"`
	FundraiserName     string `json:"fundraiserName,omitempty"`
	OriginalUserInput  string `json:"originalUserInput,omitempty"`
}

// ContributorsInput are the arguments of get_fundraiser_contributors.
type ContributorsInput struct {
	ContractAddress string `json:"contractAddress"`
}

// StatusInput are the arguments of check_fundraiser_status.
type StatusInput struct {
	ContractAddress string `json:"contractAddress"`
}

// GenerateQRInput are the arguments of generate_contribution_qr_code.
type GenerateQRInput struct {
	ContractAddress string `json:"contractAddress"`
	AmountInEth     text   `json:"amountInEth"`
	FundraiserName  string `json:"fundraiserName"`
}

const (
	qrDescription = "Generates a QR code for contributing to an EXISTING fundraiser contract. Use this ONLY when the user asks for a QR code for an already-deployed contract address. Do NOT use this for creating NEW fundraisers. IMPORTANT: Return the EXACT output from this tool without any summarization or explanation."

	deployDescription = "Creates and deploys a NEW fundraising smart contract from scratch. Use this when users want to CREATE a new fundraiser (keywords: 'create', 'deploy', 'new fundraiser', 'start a fundraiser'). The address provided is the BENEFICIARY who will receive the funds, NOT an existing contract. Automatically includes QR code generation. For '30 days' duration, use 2592000 seconds. Return the COMPLETE output exactly as provided."

	contributorsDescription = "Gets the list of contributors for a fundraiser."

	statusDescription = "Checks if a fundraiser is still active."

	balanceDescription = "Checks the balance of an Ethereum wallet address."

	sendDescription = "Sends ETH to a given address or ENS/.base name with optimized gas settings. Example: 'Send 0.1 ETH to iamchris.base.eth'. CRITICAL: Return the COMPLETE output from this tool exactly as provided."
)

const (
	qrSchema = `{
  "type": "object",
  "properties": {
    "contractAddress": {"type": "string", "description": "The existing contract address to generate QR for"},
    "amountInEth": {"type": "string", "description": "The contribution amount in ETH"},
    "fundraiserName": {"type": "string", "description": "The name of the existing fundraiser"}
  },
  "required": ["contractAddress", "amountInEth", "fundraiserName"]
}`

	deploySchema = `{
  "type": "object",
  "properties": {
    "beneficiaryAddress": {"type": "string", "description": "The Ethereum address of the person/organization who will receive the funds when the fundraiser succeeds"},
    "goalAmount": {"type": "string", "description": "The fundraising goal amount in ETH - extract from user input and convert if needed"},
    "durationInSeconds": {"type": "string", "description": "Duration of the fundraiser in seconds (default: 30 days = 2592000 seconds)", "default": "2592000"},
    "fundraiserName": {"type": "string", "description": "Name/purpose of the fundraiser extracted from user input", "default": "Fundraiser"},
    "originalUserInput": {"type": "string", "description": "The original user message to help with amount parsing"}
  },
  "required": ["beneficiaryAddress", "goalAmount"]
}`

	contractSchema = `{
  "type": "object",
  "properties": {
    "contractAddress": {"type": "string"}
  },
  "required": ["contractAddress"]
}`

	balanceSchema = `{
  "type": "object",
  "properties": {
    "address": {"type": "string"}
  },
  "required": ["address"]
}`

	sendSchema = `{
  "type": "object",
  "properties": {
    "recipient": {"type": "string", "description": "The recipient's wallet address or ENS/.base name (e.g., 'iamchris.base.eth')"},
    "amountInEth": {"type": "string", "description": "The amount of ETH to send (e.g., '0.1')"}
  },
  "required": ["recipient", "amountInEth"]
}`
)
