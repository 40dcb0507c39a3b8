package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"voc-chatbot-be/internal/config"
	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/repository/specification"
	"voc-chatbot-be/internal/repository/unitofwork"
	"voc-chatbot-be/pkg/database"
	"voc-chatbot-be/pkg/embedding"
	"voc-chatbot-be/pkg/embedding/jina"
	"voc-chatbot-be/pkg/utils"
)

// Seeds the knowledge base with a starter case catalog and embeds each case
// so retrieval works on a fresh database. Safe to re-run: existing case
// names are skipped.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var provider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "jina" {
		provider = jina.NewJinaProvider(cfg.Ai.EmbeddingAPIKey)
	} else {
		provider, err = embedding.NewProvider(
			cfg.Ai.EmbeddingProvider,
			cfg.Ai.EmbeddingBaseURL,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.EmbeddingAPIKey,
		)
		if err != nil {
			log.Fatalf("Error: Failed to initialize embedding provider: %v", err)
		}
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	caseRepo := uow.KnowledgeCaseRepository()
	embRepo := uow.CaseEmbeddingRepository()

	log.Println("Seeding Knowledge Case Catalog...")

	for _, kc := range starterCases() {
		existing, err := caseRepo.FindOne(ctx, specification.Filter("case_name", kc.CaseName))
		if err != nil {
			log.Fatalf("Error: Failed to check case '%s': %v", kc.CaseName, err)
		}
		if existing != nil {
			log.Printf("Case '%s' already exists, skipping...", kc.CaseName)
			continue
		}

		if err := caseRepo.Create(ctx, kc); err != nil {
			log.Printf("Error creating case '%s': %v", kc.CaseName, err)
			continue
		}

		chunks := utils.SplitText(caseDocument(kc), utils.DefaultChunkSize, utils.DefaultChunkOverlap)
		var embeddings []*entity.CaseEmbedding
		for i, chunk := range chunks {
			res, err := provider.Generate(ctx, chunk, embedding.TaskDocument)
			if err != nil {
				log.Fatalf("Error: Failed to embed chunk %d of case '%s': %v", i, kc.CaseName, err)
			}
			embeddings = append(embeddings, &entity.CaseEmbedding{
				Document:       chunk,
				EmbeddingValue: res.Embedding.Values,
				CaseId:         kc.Id,
			})
		}
		if err := embRepo.CreateBulk(ctx, embeddings); err != nil {
			log.Fatalf("Error: Failed to store embeddings for case '%s': %v", kc.CaseName, err)
		}

		log.Printf("Created case: %s (%s) with %d embedding chunks", kc.CaseName, kc.IssueType, len(embeddings))
	}

	log.Println("✅ Knowledge base seeding completed!")
}

// caseDocument mirrors the layout the re-embed consumer produces so seeded
// and edited cases live in the same embedding space.
func caseDocument(kc *entity.KnowledgeCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Issue: %s (%s)\n", kc.IssueName, kc.IssueType)
	fmt.Fprintf(&b, "Case: %s (%s)\n\n", kc.CaseName, kc.CaseType)
	if kc.Description != "" {
		b.WriteString(kc.Description)
		b.WriteString("\n\n")
	}
	if len(kc.Symptoms) > 0 {
		b.WriteString("Symptoms:\n")
		for _, s := range kc.Symptoms {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(kc.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(kc.Keywords, ", "))
	}
	return b.String()
}

func starterCases() []*entity.KnowledgeCase {
	return []*entity.KnowledgeCase{
		{
			IssueType:   "billing",
			IssueName:   "Billing and Payments",
			CaseType:    "duplicate_charge",
			CaseName:    "Charged twice for the same order",
			Description: "Customer sees two identical charges for a single order. Usually a pending authorization that has not dropped off yet, occasionally a genuine double capture.",
			Symptoms: []string{
				"Two charges with the same amount on the card statement",
				"Only one order confirmation email received",
			},
			QuestionsToAsk: []string{
				"Do both charges show as completed, or is one marked pending?",
				"Are the two charges on the same date?",
				"Did you receive one order confirmation or two?",
			},
			SolutionSteps: []string{
				"Check whether one of the charges is a pending authorization; these drop off within 3-5 business days.",
				"If both charges are captured, open Billing > Transactions and note both transaction ids.",
				"Request a refund of the duplicate via the Refund button on the newer transaction.",
			},
			EscalationTriggers: []string{
				"Both charges captured and refund button unavailable",
				"Duplicate older than 7 days",
			},
			Keywords: []string{"double charge", "charged twice", "duplicate payment", "refund"},
		},
		{
			IssueType:   "billing",
			IssueName:   "Billing and Payments",
			CaseType:    "failed_payment",
			CaseName:    "Payment declined at checkout",
			Description: "Card payment fails at checkout even though the card works elsewhere. Most declines come from the issuing bank or an address mismatch.",
			Symptoms: []string{
				"Error message at the payment step",
				"Card works on other sites",
			},
			QuestionsToAsk: []string{
				"What is the exact error message shown at checkout?",
				"Does the billing address entered match the address on the card statement?",
				"Have you tried a different card or payment method?",
			},
			SolutionSteps: []string{
				"Verify the billing address matches the card issuer's records exactly.",
				"Ask the bank whether they blocked the charge; online purchases are a common fraud trigger.",
				"Retry with a different payment method to unblock the order.",
			},
			EscalationTriggers: []string{
				"Multiple cards declined with address verified",
			},
			Keywords: []string{"declined", "payment failed", "checkout error", "card rejected"},
		},
		{
			IssueType:   "shipping",
			IssueName:   "Shipping and Delivery",
			CaseType:    "missing_package",
			CaseName:    "Package marked delivered but not received",
			Description: "Tracking shows delivered but the customer cannot find the package. Carriers sometimes scan delivery up to 24 hours early.",
			Symptoms: []string{
				"Tracking status says delivered",
				"No package at the delivery address",
			},
			QuestionsToAsk: []string{
				"How long ago did tracking mark the package as delivered?",
				"Have you checked with neighbors, a mailroom, or a front desk?",
				"Does the delivery photo, if any, show your address?",
			},
			SolutionSteps: []string{
				"Wait 24 hours; carriers frequently scan delivered before the actual drop-off.",
				"Check alternate drop spots: porch, garage, mailroom, neighbors.",
				"If still missing after 24 hours, file a missing package claim from the order page.",
			},
			EscalationTriggers: []string{
				"High value order missing more than 48 hours after the delivered scan",
			},
			Keywords: []string{"missing package", "not delivered", "lost shipment", "tracking delivered"},
		},
		{
			IssueType:   "shipping",
			IssueName:   "Shipping and Delivery",
			CaseType:    "delayed_order",
			CaseName:    "Order stuck in transit",
			Description: "Tracking has not updated for several days. Usually a carrier scanning gap rather than a lost parcel.",
			Symptoms: []string{
				"Tracking unchanged for 3 or more days",
				"Estimated delivery date passed",
			},
			QuestionsToAsk: []string{
				"When was the last tracking update?",
				"Is the package shipping domestically or internationally?",
			},
			SolutionSteps: []string{
				"Domestic packages can go 3-4 days without a scan; international customs gaps run longer.",
				"If the gap exceeds 5 business days domestic or 10 international, request a carrier trace from the order page.",
			},
			EscalationTriggers: []string{
				"Carrier trace already filed with no response in 3 business days",
			},
			Keywords: []string{"stuck in transit", "no tracking update", "delayed", "where is my order"},
		},
		{
			IssueType:   "account",
			IssueName:   "Account and Login",
			CaseType:    "locked_account",
			CaseName:    "Account locked after failed logins",
			Description: "Account locks for 30 minutes after repeated failed password attempts. A password reset clears the lock immediately.",
			Symptoms: []string{
				"Account locked message at login",
				"Correct password rejected",
			},
			QuestionsToAsk: []string{
				"Do you see an explicit locked message or just invalid credentials?",
				"Do you still have access to the email on the account?",
			},
			SolutionSteps: []string{
				"Use the Forgot Password link; a successful reset unlocks the account immediately.",
				"If the reset email never arrives, check spam and confirm the address spelling.",
			},
			EscalationTriggers: []string{
				"No access to the registered email address",
				"Suspected account takeover",
			},
			Keywords: []string{"locked out", "cannot log in", "too many attempts", "password reset"},
		},
		{
			IssueType:   "product",
			IssueName:   "Product Issues",
			CaseType:    "defective_item",
			CaseName:    "Item arrived damaged or defective",
			Description: "Product arrived broken, scratched, or non-functional. Damage claims within 30 days qualify for a free replacement.",
			Symptoms: []string{
				"Visible physical damage on arrival",
				"Product does not power on or function",
			},
			QuestionsToAsk: []string{
				"Was the outer shipping box also damaged?",
				"Can you share when the order was delivered?",
				"Is the damage cosmetic or does it affect function?",
			},
			SolutionSteps: []string{
				"Photograph the damage and the shipping box.",
				"Open the order page and select Report a Problem > Damaged Item, attaching the photos.",
				"A prepaid return label and replacement ship within 2 business days of approval.",
			},
			EscalationTriggers: []string{
				"Delivery older than 30 days",
				"Repeated damaged replacements on the same order",
			},
			Keywords: []string{"broken", "damaged", "defective", "not working", "replacement"},
		},
	}
}
