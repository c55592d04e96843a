package usecase

import (
	"fmt"

	"starlight-postoffice/internal/classifier"
	"starlight-postoffice/internal/domain"
)

// Sentinel and affordance texts shared with the web client.
const (
	InitMessage      = "init"
	LetterAffordance = "A letter for me?"

	buttonYes       = "Yes"
	buttonNo        = "No"
	buttonShowAgain = "Show me again"
	buttonStartOver = "Start over"
)

var (
	greetingLines = []string{
		"(An owl in round spectacles looks up from a heap of envelopes) Hoo... a visitor at this hour. Welcome to the Starlight Post Office. I am Bueong, the postmaster.",
		"(Leafing through the ledger) Ah. There is a letter addressed to you. It has waited a long while. You sent it yourself, from ten years ago or ten years ahead.",
	}
	entranceClarify = "Hoo? Speak up. There is a letter with your name on it. Do you want it or not?"

	roomPromptLines = []string{
		"Right. It is kept in the Archive of Memories. Follow me.",
		"(At the end of a long corridor four doors come into view)",
		"Your letter is behind one of these doors. In which room do you think you lost that memory?",
	}
	roomReprompt = "Hmm, there is no such door here. Pick one of the four."
	corridorLine = "(Closes the door softly) Back in the corridor, then. Which door this time?"

	drawerLines = []string{
		"(Walks over to one particular drawer) Hmm... I think I know where it is now.",
		"(The drawer creaks open)",
		"Your memory is in here. Tell me a little more about it.",
	}

	letterFoundLines = []string{
		"Found it. This is the one. (Blows the dust off)",
		"A letter from you, to the you of right now. Perhaps it holds the words you needed to hear today.",
	}
	showAgainLine = "Here. Read it once more, slowly this time."

	pleaseWaitLine     = "(Sorting a teetering pile of envelopes) The archive is still being arranged. Give me a moment and say that again."
	dialogueFallback   = "Hmm... (brushes the dust off a shelf) one moment. Say that once more?"
	closingFallback    = "I see. Thank you for telling me that."
	invalidEmptyLine   = "Hoo? I didn't catch anything. Say it again."
	invalidTooLongLine = "That is a great many words for one old owl. Could you say it more briefly?"
	saveFailedLine     = "(The ledger slips from my wings) Hoo... something went wrong in the records. Could you say that again?"

	askLetterNow        = "Already? We have barely opened the drawers. Shall I fetch the letter now anyway?"
	askCorridor         = "Shall we step back into the corridor and choose another door?"
	askReentry          = "Start everything over from the entrance? What we talked about here will be forgotten."
	unclearAnswerPrefix = "Hoo? A simple yes or no will do."

	declinedLines = map[domain.Confirmation]string{
		domain.ConfirmLetterNow:  "Good. Then let us keep talking.",
		domain.ConfirmRoomChange: "Then we stay. Go on, I'm listening.",
		domain.ConfirmReentry:    "Hmph. Then we carry on where we were.",
	}

	resumeLines = map[domain.Phase]string{
		domain.PhaseRoomSelect:       "You're back. The four doors are still waiting.",
		domain.PhaseRoomDialogue:     "Ah, you're back. Where were we... go on.",
		domain.PhaseDrawerTransition: "You're back. Say anything and I'll open the drawer.",
		domain.PhaseDrawerDialogue:   "Ah, you're back. The drawer is still open. Go on.",
		domain.PhaseLetter:           "You're back. The letter is nearly in my wings.",
		domain.PhaseEnding:           "You're back. Your letter is still here.",
	}
)

func roomEntryLines(room classifier.Room) []string {
	return []string{
		fmt.Sprintf("Hmph. As I thought. %s.", capitalize(room.Name)),
		fmt.Sprintf("(Opens the door) %s", room.Description),
		"Your letter is somewhere in this room. Talk to me freely and we will trace the memory together.",
	}
}

func askRoomChange(room classifier.Room) string {
	return fmt.Sprintf("You would rather go to %s? Shall we leave this room?", room.Name)
}

func stampLine(stamp classifier.StampCode) string {
	return "The stamp on it reads: " + stamp.Meaning
}

func farewellLine(symbol string) string {
	if symbol == "" {
		symbol = "the stamp"
	}
	return fmt.Sprintf("The letter is found, so my work here is done. Keep %s safe. Off you go now... and come back with a reply before it is too late.", symbol)
}

func confirmButtons() []string { return []string{buttonYes, buttonNo} }

func endingButtons() []string { return []string{buttonShowAgain, buttonStartOver} }
