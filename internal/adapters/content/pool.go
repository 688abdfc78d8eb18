package content

import (
	"math/rand"
	"sync"

	"astroguru/internal/domain"
)

// fallbackText возвращается для неизвестного тега знака. Ветка защитная:
// множество знаков закрыто и сюда попадать не должно.
const fallbackText = "The stars are quiet today. Trust your own judgement and take the day one step at a time."

// Pool реализует domain.ContentPool поверх статического набора текстов.
// Выбор равномерный с возвращением: один и тот же текст может выпасть
// в разные дни, памяти о показанном нет.
type Pool struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPool создаёт пул с общим источником случайности.
func NewPool() *Pool {
	return &Pool{}
}

// NewPoolWithRand создаёт пул с заданным источником — для детерминированных тестов.
func NewPoolWithRand(rnd *rand.Rand) *Pool {
	return &Pool{rnd: rnd}
}

// Pick возвращает случайный текст для знака.
func (p *Pool) Pick(sign domain.ZodiacSign) string {
	texts, ok := textsBySign[sign]
	if !ok || len(texts) == 0 {
		return fallbackText
	}
	return texts[p.intn(len(texts))]
}

func (p *Pool) intn(n int) int {
	if p.rnd == nil {
		return rand.Intn(n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(n)
}

var textsBySign = map[domain.ZodiacSign][]string{
	domain.Aries: {
		"Your natural leadership shines today. Take the initiative on that project you have been putting off — the momentum you build now will carry you through the week.",
		"Mars fuels your ambition today. A bold move at work or in a personal matter will pay off, but pick your battle before charging in.",
		"Energy runs high for you today. Channel it into physical activity or a competitive challenge rather than a pointless argument.",
		"Someone close to you needs your courage. Lend your fire to their cause and you will both come out stronger.",
		"A fresh start is within reach. Whatever you begin today has the planets behind it, so stop rehearsing and act.",
	},
	domain.Taurus: {
		"Patience is your gift, and today it pays dividends. A slow-moving plan finally shows signs of bearing fruit.",
		"Venus highlights comfort and beauty today. Treat yourself to something small but lasting — quality over quantity, as always.",
		"Hold your ground on a financial matter. Your instinct for value is sharper than the advice you are being offered.",
		"A stubborn streak could cost you an ally today. Bend a little on the details and keep the relationship intact.",
		"Steady effort beats flashy gestures today. Keep doing the unglamorous work — the right people are noticing.",
	},
	domain.Gemini: {
		"Your words carry extra weight today. A conversation you have been avoiding will go better than you expect.",
		"Curiosity opens an unexpected door. Follow the thread of an idle question and see where it leads.",
		"Two opportunities compete for your attention. You do not have to choose today, but start gathering facts on both.",
		"Mercury sharpens your wit. Write the message, pitch the idea, make the call — communication is your superpower today.",
		"A sibling or old friend resurfaces with news. Listen more than you talk and you will learn something valuable.",
	},
	domain.Cancer: {
		"Home is where your strength lies today. An evening spent with close ones will recharge you more than any achievement could.",
		"Your intuition about a colleague is correct. Act on it gently, without forcing a confrontation.",
		"The Moon stirs old memories today. Let them visit, take what is useful, and let the rest drift away.",
		"Someone is counting on your care more than they admit. A small gesture from you will mean a great deal.",
		"Protect your energy today. It is fine to say no to plans that feel heavy — the tide will turn by tomorrow.",
	},
	domain.Leo: {
		"The spotlight finds you today whether you seek it or not. Use it generously — lift someone else while you shine.",
		"Your creative fire burns bright. Start the thing you keep describing to friends; an audience is already waiting.",
		"Pride could block an apology that would cost you nothing and gain you much. Be the bigger lion.",
		"The Sun favors grand gestures today. Celebrate someone you love in a way they will remember.",
		"A leadership gap opens around you. Step in with warmth rather than force and people will follow gladly.",
	},
	domain.Virgo: {
		"The details others missed are exactly where the answer hides. Your careful eye saves the day — again.",
		"Perfection is the enemy of done today. Ship the imperfect version and refine it in the open.",
		"A health habit you have been considering deserves a real start. Small and consistent beats ambitious and abandoned.",
		"Mercury rewards organization. An hour spent clearing your desk or inbox will return to you threefold this week.",
		"Someone needs practical help, not advice. Roll up your sleeves and your quiet support will speak volumes.",
	},
	domain.Libra: {
		"Balance returns to a relationship that has felt one-sided. Name what you need calmly and it will be heard.",
		"Your sense of fairness makes you the natural mediator today. Two parties need the bridge only you can build.",
		"Venus favors partnership today. Collaborate rather than compete and the result will exceed what either of you could do alone.",
		"An aesthetic choice matters more than it seems. Trust your taste — it is rarely wrong.",
		"Indecision is just information gathering taken too far. You already know the answer; today, say it out loud.",
	},
	domain.Scorpio: {
		"A secret surfaces and rearranges the board. You saw it coming — act on what you know, not on what you feel.",
		"Your intensity is magnetic today. Focus it on one goal and obstacles will simply move aside.",
		"Transformation asks for a sacrifice. Let go of the grudge that has been masquerading as motivation.",
		"Trust, once given today, will be repaid with interest. Choose the person carefully and then commit fully.",
		"Still waters run deep, and yours are deeper than most. Spend time alone with your thoughts — the insight that arrives is worth protecting.",
	},
	domain.Sagittarius: {
		"Adventure calls, even if only across town. Break the routine today and a chance encounter will reward you.",
		"Jupiter expands whatever you feed today. Feed your optimism, not your doubts.",
		"Your honesty is refreshing, but aim before you fire. The truth lands better with a little kindness attached.",
		"A plan to learn something new gets cosmic backing. Book the course, buy the book, ask the question.",
		"Freedom matters to you more than comfort. Decline the obligation that feels like a cage, politely but firmly.",
	},
	domain.Capricorn: {
		"The mountain you have been climbing shows a ledge worth pausing on. Look back at how far you have come before pushing higher.",
		"Saturn rewards discipline today. The boring, responsible choice is also the one that builds your empire.",
		"Authority notices your consistency. Do not chase credit — it is already on its way to you.",
		"Ambition without rest is just erosion. Schedule the break with the same seriousness you schedule the work.",
		"An old investment of time or money quietly matures today. Collect the return and reinvest it wisely.",
	},
	domain.Aquarius: {
		"Your unconventional idea is ahead of its time — which is exactly why it is needed now. Share it before someone slower does.",
		"Community is your element today. Give an hour to a group cause and receive back far more than you gave.",
		"Uranus sparks a flash of insight about an old problem. Write it down immediately; it will not knock twice.",
		"Being different is your strategy, not your burden. Lean into the angle nobody else can see.",
		"A friendship deepens into an alliance today. The future you keep imagining needs exactly this person in it.",
	},
	domain.Pisces: {
		"Your dreams are trying to tell you something. The image that keeps returning is a map, not a coincidence.",
		"Neptune softens the edges of a hard situation. Compassion — for yourself included — is the practical choice today.",
		"Creativity flows like water today. Make something without judging it and the judging voices will quiet down.",
		"Your empathy picks up what others broadcast without knowing. Shield yourself a little; not every feeling in the room is yours.",
		"A quiet act of kindness you performed long ago circles back today in an unexpected form.",
	},
}
