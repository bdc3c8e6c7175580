package chat

// DefaultChats returns the demo conversation list.
func DefaultChats() []Chat {
	return []Chat{
		{
			ID:              "1",
			Name:            "Alice Designer",
			Address:         "0x1234567890abcdef1234567890abcdef12345678",
			LastMessage:     "I've finished the mockups for the landing page",
			LastMessageTime: "10:45 AM",
			Status:          "Milestone 1 Paid ✅",
			Unread:          true,
			ProfileImage:    "https://i.pravatar.cc/150?img=1",
		},
		{
			ID:              "2",
			Name:            "Bob Developer",
			Address:         "0xabcdef1234567890abcdef1234567890abcdef12",
			LastMessage:     "Can you review the code I pushed?",
			LastMessageTime: "Yesterday",
			Status:          StatusLabelInProgress,
			Unread:          false,
			ProfileImage:    "https://i.pravatar.cc/150?img=2",
		},
		{
			ID:              "3",
			Name:            "Carol Project Manager",
			Address:         "0x7890abcdef1234567890abcdef1234567890abcd",
			LastMessage:     "Let's discuss the timeline for Phase 2",
			LastMessageTime: "Monday",
			Status:          "",
			Unread:          false,
			ProfileImage:    "https://i.pravatar.cc/150?img=3",
		},
		{
			ID:              "4",
			Name:            "Dave Marketer",
			Address:         "0xdef1234567890abcdef1234567890abcdef123456",
			LastMessage:     "The analytics from the campaign look promising",
			LastMessageTime: "Last week",
			Status:          StatusLabelContractSigned,
			Unread:          false,
			ProfileImage:    "https://i.pravatar.cc/150?img=4",
		},
	}
}

// DefaultMessages returns the demo message logs keyed by conversation ID.
func DefaultMessages() map[string][]Message {
	alice := "0x1234567890abcdef1234567890abcdef12345678"
	return map[string][]Message{
		"1": {
			{ID: "1", Content: "Hi there! I'm interested in discussing the project requirements.", Sender: alice, Timestamp: "10:30 AM"},
			{ID: "2", Content: "Hi Alice, I'd love to talk about the project.", Sender: SenderMe, Timestamp: "10:32 AM"},
			{ID: "3", Content: "Great! I've reviewed the specifications and I think I can deliver exactly what you need.", Sender: alice, Timestamp: "10:35 AM"},
			{ID: "4", Content: "Sounds good. What's your timeline for the design mockups?", Sender: SenderMe, Timestamp: "10:38 AM"},
			{ID: "5", Content: "I can have the initial mockups ready by the end of this week. Then we can iterate based on your feedback.", Sender: alice, Timestamp: "10:42 AM"},
			{ID: "6", Content: "Perfect. I've just completed the first milestone and uploaded the designs to the shared workspace.", Sender: alice, Timestamp: "10:45 AM"},
		},
	}
}
