// Package result defines the record produced for one (contract, tool) run.
package result

import (
	"time"

	"github.com/mrz1836/sieve/internal/parser"
)

// ExecutionFailedMessage is the error message of an unsuccessful run.
const ExecutionFailedMessage = "Tool execution failed"

// AnalysisResult is one tool run against one contract. Results are keyed by
// (ContractName, Tool); a later run with the same key overwrites the stored
// files of an earlier one.
type AnalysisResult struct {
	ContractName  string         `json:"contract_name"`
	ContractPath  string         `json:"contract_path"`
	Address       string         `json:"address,omitempty"`
	Tool          string         `json:"tool"`
	Success       bool           `json:"success"`
	ExecutionTime float64        `json:"execution_time"`
	RawStdout     string         `json:"raw_stdout"`
	RawStderr     string         `json:"raw_stderr"`
	ErrorMessage  *string        `json:"error_message"`
	Parsed        *parser.Report `json:"parsed,omitempty"`
}

// New builds a result from a finished run. Failed runs carry
// ExecutionFailedMessage.
func New(contractName, contractPath, tool string, success bool, elapsed time.Duration, stdout, stderr string) *AnalysisResult {
	r := &AnalysisResult{
		ContractName:  contractName,
		ContractPath:  contractPath,
		Tool:          tool,
		Success:       success,
		ExecutionTime: elapsed.Seconds(),
		RawStdout:     stdout,
		RawStderr:     stderr,
	}
	if !success {
		msg := ExecutionFailedMessage
		r.ErrorMessage = &msg
	}
	return r
}

// Key is the stable identity used in file names.
func (r *AnalysisResult) Key() string {
	return r.ContractName + "_" + r.Tool
}

// Elapsed returns the execution time as a Duration.
func (r *AnalysisResult) Elapsed() time.Duration {
	return time.Duration(r.ExecutionTime * float64(time.Second))
}

// FindingCount returns the parsed total, or zero without a parsed report.
func (r *AnalysisResult) FindingCount() int {
	if r.Parsed == nil {
		return 0
	}
	return r.Parsed.TotalFindings
}
