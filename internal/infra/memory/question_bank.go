package memory

import "quiz-duel-service/internal/domain"

// DefaultQuestionBank is the static fallback question supply used when the
// primary supplier is unreachable. Five questions per subject and difficulty,
// matching the fixed duel length.
func DefaultQuestionBank() map[domain.Subject]map[domain.Difficulty][]domain.Question {
	return map[domain.Subject]map[domain.Difficulty][]domain.Question{
		domain.SubjectMath: {
			domain.DifficultyBeginner: {
				{Prompt: "What is 15 + 27?", Options: []string{"40", "42", "44", "46"}, CorrectOption: 1, Explanation: "15 + 27 = 42"},
				{Prompt: "What is 8 × 7?", Options: []string{"54", "56", "58", "60"}, CorrectOption: 1, Explanation: "8 × 7 = 56"},
				{Prompt: "What is 100 - 37?", Options: []string{"63", "67", "73", "77"}, CorrectOption: 0, Explanation: "100 - 37 = 63"},
				{Prompt: "What is 12 ÷ 3?", Options: []string{"3", "4", "5", "6"}, CorrectOption: 1, Explanation: "12 ÷ 3 = 4"},
				{Prompt: "What is 9 × 6?", Options: []string{"52", "54", "56", "58"}, CorrectOption: 1, Explanation: "9 × 6 = 54"},
			},
			domain.DifficultyIntermediate: {
				{Prompt: "What is the square root of 144?", Options: []string{"10", "11", "12", "13"}, CorrectOption: 2, Explanation: "12 × 12 = 144"},
				{Prompt: "What is 15% of 200?", Options: []string{"25", "30", "35", "40"}, CorrectOption: 1, Explanation: "200 × 0.15 = 30"},
				{Prompt: "Solve for x: 2x + 6 = 20", Options: []string{"5", "6", "7", "8"}, CorrectOption: 2, Explanation: "2x = 14, so x = 7"},
				{Prompt: "What is 3⁴?", Options: []string{"27", "64", "81", "243"}, CorrectOption: 2, Explanation: "3 × 3 × 3 × 3 = 81"},
				{Prompt: "What is the area of a circle with radius 5? (π ≈ 3.14)", Options: []string{"31.4", "62.8", "78.5", "157"}, CorrectOption: 2, Explanation: "πr² = 3.14 × 25 = 78.5"},
			},
			domain.DifficultyAdvanced: {
				{Prompt: "What is the derivative of x³?", Options: []string{"x²", "2x²", "3x²", "3x"}, CorrectOption: 2, Explanation: "d/dx(x³) = 3x²"},
				{Prompt: "What is log₁₀(1000)?", Options: []string{"2", "3", "10", "100"}, CorrectOption: 1, Explanation: "10³ = 1000"},
				{Prompt: "What is the sum of the first 10 positive integers?", Options: []string{"45", "50", "55", "60"}, CorrectOption: 2, Explanation: "10 × 11 / 2 = 55"},
				{Prompt: "If sin(θ) = 0.5 and θ is acute, what is θ?", Options: []string{"30°", "45°", "60°", "90°"}, CorrectOption: 0, Explanation: "sin(30°) = 0.5"},
				{Prompt: "What is 7! / 5!?", Options: []string{"12", "21", "42", "56"}, CorrectOption: 2, Explanation: "7 × 6 = 42"},
			},
		},
		domain.SubjectEnglish: {
			domain.DifficultyBeginner: {
				{Prompt: "Which word is a noun?", Options: []string{"run", "quickly", "table", "blue"}, CorrectOption: 2, Explanation: "A table is a thing, so it is a noun"},
				{Prompt: "What is the plural of 'child'?", Options: []string{"childs", "children", "childes", "child"}, CorrectOption: 1, Explanation: "'Child' has the irregular plural 'children'"},
				{Prompt: "Choose the correct form: She ___ to school every day.", Options: []string{"go", "goes", "going", "gone"}, CorrectOption: 1, Explanation: "Third person singular takes 'goes'"},
				{Prompt: "Which word is the opposite of 'hot'?", Options: []string{"warm", "cool", "cold", "mild"}, CorrectOption: 2, Explanation: "'Cold' is the antonym of 'hot'"},
				{Prompt: "What is the past tense of 'eat'?", Options: []string{"eated", "eaten", "ate", "eating"}, CorrectOption: 2, Explanation: "'Eat' becomes 'ate' in the past tense"},
			},
			domain.DifficultyIntermediate: {
				{Prompt: "Which sentence uses the passive voice?", Options: []string{"The dog chased the cat.", "The cat was chased by the dog.", "The cat is chasing the dog.", "Dogs chase cats."}, CorrectOption: 1, Explanation: "The subject receives the action in the passive voice"},
				{Prompt: "What does 'ubiquitous' mean?", Options: []string{"rare", "present everywhere", "ancient", "transparent"}, CorrectOption: 1, Explanation: "'Ubiquitous' means found everywhere"},
				{Prompt: "Identify the adverb: She sang beautifully.", Options: []string{"She", "sang", "beautifully", "none"}, CorrectOption: 2, Explanation: "'Beautifully' modifies the verb 'sang'"},
				{Prompt: "Choose the correct conditional: If it rains, I ___ home.", Options: []string{"stayed", "will stay", "would stayed", "am staying"}, CorrectOption: 1, Explanation: "First conditional uses 'will' + base verb"},
				{Prompt: "Which word is a synonym of 'happy'?", Options: []string{"morose", "elated", "apathetic", "weary"}, CorrectOption: 1, Explanation: "'Elated' means very happy"},
			},
			domain.DifficultyAdvanced: {
				{Prompt: "Which literary device is 'the wind whispered'?", Options: []string{"simile", "metaphor", "personification", "alliteration"}, CorrectOption: 2, Explanation: "Giving human traits to the wind is personification"},
				{Prompt: "What is the subjunctive form: I suggest that he ___ early.", Options: []string{"leaves", "leave", "left", "is leaving"}, CorrectOption: 1, Explanation: "The subjunctive uses the base form after 'suggest that'"},
				{Prompt: "What does 'ephemeral' mean?", Options: []string{"eternal", "short-lived", "valuable", "invisible"}, CorrectOption: 1, Explanation: "'Ephemeral' means lasting a very short time"},
				{Prompt: "Identify the gerund: Swimming is good exercise.", Options: []string{"Swimming", "is", "good", "exercise"}, CorrectOption: 0, Explanation: "'Swimming' is a verb form acting as a noun"},
				{Prompt: "Which word means 'to make amends'?", Options: []string{"atone", "absolve", "accuse", "abstain"}, CorrectOption: 0, Explanation: "'Atone' means to make amends for a wrong"},
			},
		},
		domain.SubjectBahasa: {
			domain.DifficultyBeginner: {
				{Prompt: "Apa lawan kata dari 'besar'?", Options: []string{"luas", "kecil", "tinggi", "panjang"}, CorrectOption: 1, Explanation: "Lawan kata 'besar' adalah 'kecil'"},
				{Prompt: "Manakah yang termasuk kata benda?", Options: []string{"berlari", "cepat", "meja", "indah"}, CorrectOption: 2, Explanation: "'Meja' adalah kata benda"},
				{Prompt: "Apa sinonim dari 'pintar'?", Options: []string{"bodoh", "cerdas", "malas", "rajin"}, CorrectOption: 1, Explanation: "'Cerdas' sama artinya dengan 'pintar'"},
				{Prompt: "Kalimat manakah yang benar?", Options: []string{"Saya pergi ke pasar", "Saya ke pergi pasar", "Pergi saya pasar ke", "Ke pasar pergi saya"}, CorrectOption: 0, Explanation: "Susunan kalimat yang benar: subjek, predikat, keterangan"},
				{Prompt: "Apa bentuk jamak yang tepat dari 'buku'?", Options: []string{"bukus", "buku-buku", "bebuku", "bukuan"}, CorrectOption: 1, Explanation: "Pengulangan kata menyatakan jamak"},
			},
			domain.DifficultyIntermediate: {
				{Prompt: "Apa imbuhan yang tepat: '___tulis' (melakukan pekerjaan menulis)?", Options: []string{"ter", "me", "di", "pe"}, CorrectOption: 1, Explanation: "Awalan 'me-' menyatakan melakukan pekerjaan"},
				{Prompt: "Manakah kalimat pasif?", Options: []string{"Ibu memasak nasi", "Nasi dimasak oleh ibu", "Ibu sedang memasak", "Memasak itu mudah"}, CorrectOption: 1, Explanation: "Awalan 'di-' menandai kalimat pasif"},
				{Prompt: "Apa arti peribahasa 'besar pasak daripada tiang'?", Options: []string{"rajin bekerja", "pengeluaran lebih besar dari pemasukan", "sombong", "hemat"}, CorrectOption: 1, Explanation: "Peribahasa ini tentang pemborosan"},
				{Prompt: "Kata baku dari 'apotik' adalah?", Options: []string{"apotek", "apottik", "apathek", "apotik"}, CorrectOption: 0, Explanation: "Bentuk baku menurut KBBI adalah 'apotek'"},
				{Prompt: "Apa jenis kata 'dengan cepat'?", Options: []string{"kata benda", "kata kerja", "kata keterangan", "kata sifat"}, CorrectOption: 2, Explanation: "'Dengan cepat' menerangkan cara"},
			},
			domain.DifficultyAdvanced: {
				{Prompt: "Apa makna ungkapan 'tangan kanan'?", Options: []string{"orang kepercayaan", "orang kaya", "orang kuat", "orang pertama"}, CorrectOption: 0, Explanation: "'Tangan kanan' berarti orang kepercayaan"},
				{Prompt: "Manakah kalimat majemuk bertingkat?", Options: []string{"Saya makan dan minum", "Dia datang ketika hujan turun", "Kami bermain bola", "Mereka pergi ke sekolah"}, CorrectOption: 1, Explanation: "'Ketika' menandai anak kalimat"},
				{Prompt: "Apa arti kata 'ambigu'?", Options: []string{"jelas", "bermakna ganda", "tegas", "singkat"}, CorrectOption: 1, Explanation: "'Ambigu' berarti bermakna lebih dari satu"},
				{Prompt: "Majas dalam 'ombak berkejar-kejaran di pantai' adalah?", Options: []string{"metafora", "personifikasi", "hiperbola", "ironi"}, CorrectOption: 1, Explanation: "Ombak diberi sifat manusia"},
				{Prompt: "Kata serapan 'efektif' berasal dari kata?", Options: []string{"effective", "efektivo", "effectif", "efektiv"}, CorrectOption: 0, Explanation: "Diserap dari bahasa Inggris 'effective'"},
			},
		},
	}
}
