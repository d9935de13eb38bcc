package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/database"
	"github.com/examguard/examguard-backend/internal/logger"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/repository"
)

type seedQuestion struct {
	Text        string
	Options     []string
	Correct     string
	Category    string
	Explanation string
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Println("=== Seeding Question Bank ===")

	successCount := 0
	total := 0

	for difficulty, bank := range mcqBank {
		for _, sq := range bank {
			total++
			options, _ := json.Marshal(sq.Options)
			q := &model.Question{
				QuestionText:  sq.Text,
				Options:       options,
				CorrectAnswer: sq.Correct,
				Category:      sq.Category,
				Difficulty:    difficulty,
				QType:         model.QuestionTypeMCQ,
				Explanation:   sq.Explanation,
			}
			if err := questionRepo.Create(ctx, q); err != nil {
				fmt.Printf("Error creating question %q: %v\n", sq.Text, err)
				continue
			}
			successCount++
		}
	}

	trueFalseOptions, _ := json.Marshal([]string{"true", "false"})
	for difficulty, bank := range trueFalseBank {
		for _, sq := range bank {
			total++
			q := &model.Question{
				QuestionText:  sq.Text,
				Options:       trueFalseOptions,
				CorrectAnswer: sq.Correct,
				Category:      sq.Category,
				Difficulty:    difficulty,
				QType:         model.QuestionTypeTrueFalse,
				Explanation:   sq.Explanation,
			}
			if err := questionRepo.Create(ctx, q); err != nil {
				fmt.Printf("Error creating question %q: %v\n", sq.Text, err)
				continue
			}
			successCount++
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", successCount, total)
}

var mcqBank = map[model.Difficulty][]seedQuestion{
	model.DifficultyEasy: {
		{"What is the capital of France?", []string{"Paris", "London", "Berlin", "Madrid"}, "Paris", "Geography", "Paris has been the capital of France since 987."},
		{"Which planet is known as the Red Planet?", []string{"Venus", "Mars", "Jupiter", "Saturn"}, "Mars", "Science", "Iron oxide on the surface gives Mars its red color."},
		{"What is 7 x 8?", []string{"54", "56", "58", "64"}, "56", "Math", ""},
		{"Which gas do plants absorb from the atmosphere?", []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, "Carbon dioxide", "Science", "Photosynthesis converts carbon dioxide and water into glucose."},
		{"How many continents are there?", []string{"5", "6", "7", "8"}, "7", "Geography", ""},
		{"What is the largest ocean on Earth?", []string{"Atlantic", "Indian", "Arctic", "Pacific"}, "Pacific", "Geography", "The Pacific covers about a third of the planet's surface."},
		{"Which language has the most native speakers?", []string{"English", "Mandarin", "Spanish", "Hindi"}, "Mandarin", "General", ""},
		{"What is H2O commonly known as?", []string{"Salt", "Water", "Hydrogen", "Peroxide"}, "Water", "Science", ""},
		{"How many sides does a hexagon have?", []string{"5", "6", "7", "8"}, "6", "Math", ""},
		{"Which animal is known as the King of the Jungle?", []string{"Tiger", "Elephant", "Lion", "Gorilla"}, "Lion", "General", ""},
	},
	model.DifficultyMedium: {
		{"Which element has the chemical symbol Fe?", []string{"Fluorine", "Iron", "Lead", "Tin"}, "Iron", "Science", "Fe comes from the Latin word ferrum."},
		{"In which year did World War II end?", []string{"1943", "1944", "1945", "1946"}, "1945", "History", "The war ended with Japan's surrender in September 1945."},
		{"What is the square root of 144?", []string{"10", "11", "12", "14"}, "12", "Math", ""},
		{"Which country hosted the 2016 Summer Olympics?", []string{"China", "Brazil", "Japan", "Russia"}, "Brazil", "General", "Rio de Janeiro was the host city."},
		{"Who painted the Mona Lisa?", []string{"Michelangelo", "Raphael", "Leonardo da Vinci", "Donatello"}, "Leonardo da Vinci", "Art", ""},
		{"What is the longest river in the world?", []string{"Amazon", "Nile", "Yangtze", "Mississippi"}, "Nile", "Geography", "The Nile runs about 6,650 km through northeastern Africa."},
		{"Which data structure uses FIFO ordering?", []string{"Stack", "Queue", "Tree", "Graph"}, "Queue", "Computing", "First in, first out describes a queue."},
		{"What is the smallest prime number?", []string{"0", "1", "2", "3"}, "2", "Math", "1 is not prime; 2 is the smallest and only even prime."},
		{"Which organ produces insulin?", []string{"Liver", "Pancreas", "Kidney", "Spleen"}, "Pancreas", "Science", ""},
		{"What is the currency of Japan?", []string{"Won", "Yuan", "Yen", "Ringgit"}, "Yen", "General", ""},
	},
	model.DifficultyHard: {
		{"What is the time complexity of binary search?", []string{"O(n)", "O(log n)", "O(n log n)", "O(1)"}, "O(log n)", "Computing", "Each comparison halves the remaining search space."},
		{"Which particle carries the electromagnetic force?", []string{"Gluon", "Photon", "Boson", "Neutrino"}, "Photon", "Science", "Photons are the gauge bosons of electromagnetism."},
		{"What is the derivative of sin(x)?", []string{"cos(x)", "-cos(x)", "-sin(x)", "tan(x)"}, "cos(x)", "Math", ""},
		{"In which year was the Magna Carta signed?", []string{"1066", "1215", "1348", "1415"}, "1215", "History", "King John sealed it at Runnymede in June 1215."},
		{"Which sorting algorithm has the best worst-case complexity?", []string{"Quicksort", "Bubble sort", "Merge sort", "Insertion sort"}, "Merge sort", "Computing", "Merge sort is O(n log n) in every case."},
		{"What is Avogadro's number approximately?", []string{"6.022e23", "3.142e23", "1.602e-19", "9.81e23"}, "6.022e23", "Science", ""},
		{"Who formulated the incompleteness theorems?", []string{"Hilbert", "Turing", "Godel", "Cantor"}, "Godel", "Math", "Kurt Godel published them in 1931."},
		{"Which treaty ended World War I?", []string{"Treaty of Paris", "Treaty of Versailles", "Treaty of Vienna", "Treaty of Ghent"}, "Treaty of Versailles", "History", ""},
		{"What does ACID stand for in databases?", []string{"Atomicity Consistency Isolation Durability", "Access Control Identity Durability", "Atomicity Concurrency Integrity Durability", "Availability Consistency Isolation Distribution"}, "Atomicity Consistency Isolation Durability", "Computing", ""},
		{"What is the rank of the zero matrix?", []string{"0", "1", "Undefined", "Equal to its size"}, "0", "Math", ""},
	},
}

var trueFalseBank = map[model.Difficulty][]seedQuestion{
	model.DifficultyEasy: {
		{"The Earth revolves around the Sun.", nil, "true", "Science", ""},
		{"There are 366 days in a common year.", nil, "false", "General", "A common year has 365 days; leap years have 366."},
		{"Sound travels faster than light.", nil, "false", "Science", "Light is roughly a million times faster than sound."},
		{"The Great Wall of China is located in Asia.", nil, "true", "Geography", ""},
		{"Water boils at 100 degrees Celsius at sea level.", nil, "true", "Science", ""},
		{"A triangle has four sides.", nil, "false", "Math", ""},
		{"The Pacific is the smallest ocean.", nil, "false", "Geography", "The Arctic is the smallest ocean."},
		{"Honey never spoils.", nil, "true", "General", "Its low moisture and acidity prevent bacterial growth."},
		{"Humans have five senses at most.", nil, "false", "Science", "Balance and proprioception are senses beyond the classic five."},
		{"Lightning never strikes the same place twice.", nil, "false", "Science", "Tall structures are struck repeatedly every year."},
	},
	model.DifficultyMedium: {
		{"The mitochondria is the powerhouse of the cell.", nil, "true", "Science", ""},
		{"Venus is the hottest planet in the solar system.", nil, "true", "Science", "Its dense atmosphere traps heat beyond Mercury's levels."},
		{"HTTP is a stateful protocol.", nil, "false", "Computing", "HTTP is stateless; sessions are layered on top."},
		{"The Cold War ended in 1991.", nil, "true", "History", "It ended with the dissolution of the Soviet Union."},
		{"Prime numbers can be negative.", nil, "false", "Math", "Primality is defined for natural numbers greater than 1."},
		{"DNA is a double helix.", nil, "true", "Science", ""},
		{"Australia is both a country and a continent.", nil, "true", "Geography", ""},
		{"TCP guarantees message ordering.", nil, "true", "Computing", "TCP delivers bytes in order via sequence numbers."},
		{"The French Revolution began in 1789.", nil, "true", "History", ""},
		{"Pi is a rational number.", nil, "false", "Math", "Pi cannot be expressed as a ratio of integers."},
	},
	model.DifficultyHard: {
		{"The halting problem is decidable.", nil, "false", "Computing", "Turing proved no general algorithm can decide it."},
		{"Entropy in a closed system never decreases.", nil, "true", "Science", "This is the second law of thermodynamics."},
		{"Every continuous function is differentiable.", nil, "false", "Math", "The absolute value function is continuous but not differentiable at 0."},
		{"Quicksort is a stable sorting algorithm.", nil, "false", "Computing", "Standard in-place quicksort does not preserve equal-key order."},
		{"The Byzantine Empire fell in 1453.", nil, "true", "History", "Constantinople fell to the Ottomans in May 1453."},
		{"Neutrinos have exactly zero mass.", nil, "false", "Science", "Neutrino oscillation implies a small nonzero mass."},
		{"The set of real numbers is countable.", nil, "false", "Math", "Cantor's diagonal argument shows it is uncountable."},
		{"B-trees are optimized for disk access.", nil, "true", "Computing", "High fanout minimizes disk reads per lookup."},
		{"The Treaty of Tordesillas divided the New World between Spain and Portugal.", nil, "true", "History", ""},
		{"Euler's identity relates five fundamental constants.", nil, "true", "Math", "e^(i*pi) + 1 = 0 links e, i, pi, 1 and 0."},
	},
}
