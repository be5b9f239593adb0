package cli

import "scholarspath-quiz/internal/domain"

// sampleQuestionSets provides a small catalog for demos and empty deployments.
func sampleQuestionSets() map[domain.Selection]domain.QuestionSet {
	return map[domain.Selection]domain.QuestionSet{
		{Level: "primary", Class: "basic-4", Subject: "science"}: {
			{
				Text: "What is an example of an invertebrate?",
				Options: []domain.QuestionOption{
					{Label: "A", Text: "Dog"},
					{Label: "B", Text: "Elephant"},
					{Label: "C", Text: "Ant"},
					{Label: "D", Text: "Cat"},
				},
				CorrectAnswer: "C",
				Explanation:   "Ants are insects, which are a type of invertebrate.",
			},
			{
				Text: "Which part of a plant makes food?",
				Options: []domain.QuestionOption{
					{Label: "A", Text: "Root"},
					{Label: "B", Text: "Leaf"},
					{Label: "C", Text: "Stem"},
					{Label: "D", Text: "Flower"},
				},
				CorrectAnswer: "B",
				Explanation:   "Leaves make food for the plant through photosynthesis.",
			},
		},
		{Level: "primary", Class: "basic-1", Subject: "mathematics"}: {
			{
				Text: "What is 2 + 2?",
				Options: []domain.QuestionOption{
					{Label: "A", Text: "3"},
					{Label: "B", Text: "4"},
					{Label: "C", Text: "5"},
					{Label: "D", Text: "22"},
				},
				CorrectAnswer: "B",
				Explanation:   "Two and two make four.",
			},
			{
				Text: "How many sides does a triangle have?",
				Options: []domain.QuestionOption{
					{Label: "A", Text: "2"},
					{Label: "B", Text: "3"},
					{Label: "C", Text: "4"},
					{Label: "D", Text: "5"},
				},
				CorrectAnswer: "B",
				Explanation:   "A triangle has three sides.",
			},
		},
		{Level: "jhs", Class: "basic-7-(jhs-1)", Subject: "social-studies"}: {
			{
				Text: "What is the capital city of Ghana?",
				Options: []domain.QuestionOption{
					{Label: "A", Text: "Kumasi"},
					{Label: "B", Text: "Tamale"},
					{Label: "C", Text: "Accra"},
					{Label: "D", Text: "Cape Coast"},
				},
				CorrectAnswer: "C",
				Explanation:   "Accra has been the capital of Ghana since independence in 1957.",
			},
		},
	}
}
