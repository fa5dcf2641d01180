package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/reputation/domain"
	reputationServices "github.com/blockchain-trust-platform/fabric-chaincode/reputation/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

// InsightHandler handles reputation analysis and its query surface
type InsightHandler struct {
	analyzer     *domain.Analyzer
	repository   *domain.FabricReputationRepository
	eventService *reputationServices.EventService
}

// NewInsightHandler creates an insight handler over the registry state
func NewInsightHandler() *InsightHandler {
	repository := domain.NewFabricReputationRepository()
	return &InsightHandler{
		analyzer:     domain.NewAnalyzer(repository, repository, repository),
		repository:   repository,
		eventService: reputationServices.NewEventService(),
	}
}

// AnalyzeReputation recomputes and persists the subject's reputation
// insight from the contributing attestations
func (h *InsightHandler) AnalyzeReputation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.AnalysisRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse analysis request: %v", err)
	}
	if err := domain.ValidateAnalysisRequest(&req); err != nil {
		return nil, err
	}

	if _, err := shared.ValidateActorAccess(stub, req.ActorID, shared.PermissionAnalyzeReputation); err != nil {
		return nil, err
	}

	previous, err := h.repository.Insight(stub, req.SubjectID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	insight, err := h.analyzer.Analyze(stub, &req)
	if err != nil {
		return nil, err
	}

	changeType := "CREATE"
	previousScore := ""
	if previous != nil {
		changeType = "UPDATE"
		previousScore = strconv.Itoa(previous.OverallScore)
	}
	if err := recordInsightHistory(stub, req.SubjectID, changeType, "overallScore", previousScore, strconv.Itoa(insight.OverallScore), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	if err := h.eventService.EmitReputationAnalyzed(stub, insight, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(insight)
}

// GetReputationInsights retrieves the stored insight for a subject
func (h *InsightHandler) GetReputationInsights(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	insight, err := h.repository.Insight(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(insight)
}

// GetReputationHistory lists a subject's score snapshots oldest first
func (h *InsightHandler) GetReputationHistory(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	snapshots, err := h.repository.Snapshots(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(snapshots)
}
