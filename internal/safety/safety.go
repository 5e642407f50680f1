// Package safety serves static flood safety guidance. The tips are
// sourced from American Red Cross flood safety material; shelter
// resources point at Red Cross and FEMA lookup services.
package safety

// Section groups related guidance under a heading.
type Section struct {
	Title string   `json:"title"`
	Tips  []string `json:"tips"`
}

// Guide is the full safety payload served by the API.
type Guide struct {
	SafetyTips []Section `json:"safety_tips"`
	Shelter    []Section `json:"shelter"`
}

// Tips returns preparation, response, and recovery guidance.
func Tips() []Section {
	return []Section{
		{
			Title: "Prepare",
			Tips: []string{
				"Build an emergency kit: water (1 gallon per person per day), non-perishable food, flashlight, battery-powered radio, first aid kit, medications, multi-purpose tool, sanitation items, copies of personal documents, cell phone with chargers, family and emergency contact information, and extra cash.",
				"Make a plan: discuss with your family where you will go if you need to evacuate, and plan how you will communicate if separated.",
				"Know your risk: check if you live in a flood plain and sign up for your community's warning system. The Emergency Alert System (EAS) and NOAA Weather Radio also provide emergency alerts.",
				"Protect your home: elevate the furnace, water heater, and electric panel if susceptible to flooding. Install check valves in sewer traps to prevent floodwater from backing up into your drains.",
			},
		},
		{
			Title: "Respond (During a Flood)",
			Tips: []string{
				"Listen to authorities: if told to evacuate, do so immediately. Never drive around barricades; local responders use them to safely direct traffic out of flooded areas.",
				"Turn around, don't drown: do not walk, swim, or drive through floodwaters. Just 6 inches of moving water can knock you down, and one foot of moving water can sweep your vehicle away.",
				"Stay off bridges over fast-moving water.",
				"Move to higher ground: if trapped in a building, move to the highest level. Do not climb into a closed attic; you may become trapped by rising floodwater. Go on the roof only if necessary and signal for help.",
			},
		},
		{
			Title: "Recover (After a Flood)",
			Tips: []string{
				"Return home only when authorities say it is safe.",
				"Avoid hazards: watch for debris where floodwaters have receded. Floodwaters often erode roads and walkways; do not attempt to drive through areas that are still flooded.",
				"Clean up safely: wear protective clothing, including rubber gloves and boots. Mold can be a serious health hazard.",
				"Electrical safety: do not touch electrical equipment if it is wet or if you are standing in water. If it is safe to do so, turn off the electricity at the main breaker to prevent electric shock.",
			},
		},
	}
}

// Shelter returns shelter-lookup resources and higher-ground advice.
func Shelter() []Section {
	return []Section{
		{
			Title: "Find a Shelter",
			Tips: []string{
				"Red Cross shelter locator: visit redcross.org/shelter to find open shelters near you.",
				"FEMA mobile app: download the FEMA App to find open shelters and disaster recovery centers.",
				"Text for shelter: text SHELTER and your zip code to 43362 (4FEMA) to find the nearest shelter (standard message rates apply).",
			},
		},
		{
			Title: "Higher Ground Advice",
			Tips: []string{
				"Identify higher ground: look for hills, multi-story buildings, or designated evacuation points in your community that are above the flood level.",
				"Move immediately: if you are in a low-lying area and flash flooding is possible, move to higher ground immediately. Do not wait for an official warning.",
				"Avoid attics: do not climb into a closed attic to escape rising floodwater, as you may become trapped. Go to the roof only if necessary and signal for help.",
			},
		},
	}
}

// FullGuide assembles the complete payload.
func FullGuide() Guide {
	return Guide{
		SafetyTips: Tips(),
		Shelter:    Shelter(),
	}
}
