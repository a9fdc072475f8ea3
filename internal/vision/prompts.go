package vision

// AnalyzePrompt asks for a single JSON object describing one waste photo.
const AnalyzePrompt = `ONLY RETURN JSON NO DESCRIPTION
Analyze this waste image and return a JSON object with keys:
wasteType ("plastic", "organic", "metal", "e-waste", or "other"),
confidence (a number between 0 and 1),
amount ("low", "medium", or "high"),
and points (5 for low, 10 for medium, 15 for high).`

// ComparePrompt asks whether two photos show the same waste.
const ComparePrompt = `These are two images of waste. Carefully analyze them and determine if they show the same type of waste, captured at different times or angles.
Focus on the type of material (e.g., plastic bottle, metal can), shape, color, and quantity.
Answer with a single word: "true" (if same) or "false" (if different).`
