// Package i18n holds the centralized multilingual message tables. The tables
// are initialized at process start and never mutated afterwards, so they are
// safe for concurrent read-only access across requests.
package i18n

import (
	"fmt"
	"strings"
)

// Supported language codes. English is the fallback for every message.
const (
	LangEnglish = "en"
	LangHebrew  = "he"
	LangRussian = "ru"
	LangArabic  = "ar"
)

var supported = map[string]bool{
	LangEnglish: true,
	LangHebrew:  true,
	LangRussian: true,
	LangArabic:  true,
}

// Supported reports whether code is a known language code.
func Supported(code string) bool { return supported[code] }

// Args carries format values interpolated into {placeholder} slots.
type Args map[string]any

type entry map[string]string         // lang -> text
type category map[string]entry       // key -> entry
var catalog = map[string]category{} // category -> keys

func init() {
	catalog["medication"] = category{
		"missing_ingredient": {
			"en": "Please provide an active ingredient to search for.",
			"he": "נא לספק רכיב פעיל לחיפוש.",
			"ru": "Пожалуйста, укажите действующее вещество для поиска.",
			"ar": "يرجى تقديم المادة الفعالة للبحث.",
		},
		"no_results": {
			"en": "No medications found with active ingredient '{ingredient}'. Please check the spelling or try another ingredient.",
			"he": "לא נמצאו תרופות עם הרכיב הפעיל '{ingredient}'. בדוק איות או נסה רכיב אחר.",
			"ru": "Не найдено лекарств с действующим веществом '{ingredient}'. Проверьте написание или попробуйте другое вещество.",
			"ar": "لم يتم العثور على أدوية تحتوي على المادة الفعالة '{ingredient}'. يرجى التحقق من الإملاء أو تجربة مادة أخرى.",
		},
		"search_failed": {
			"en": "I'm having trouble searching medications right now. Please try again later.",
			"he": "קיימת בעיה בחיפוש תרופות כרגע. נסה שוב מאוחר יותר.",
			"ru": "Сейчас возникают проблемы с поиском лекарств. Пожалуйста, попробуйте позже.",
			"ar": "أواجه مشكلة في البحث عن الأدوية حالياً. يرجى المحاولة لاحقاً.",
		},
		"missing_name": {
			"en": "Please provide a medication name.",
			"he": "נא לספק שם תרופה.",
			"ru": "Пожалуйста, укажите название лекарства.",
			"ar": "يرجى تقديم اسم الدواء.",
		},
		"resolve_not_found": {
			"en": "I couldn't find a medication named '{name}'. Please check the spelling or try providing the active ingredient.",
			"he": "לא מצאתי תרופה בשם '{name}'. בדוק איות או ספק את הרכיב הפעיל.",
			"ru": "Не удалось найти лекарство с названием '{name}'. Проверьте написание или укажите действующее вещество.",
			"ar": "لم أتمكن من العثور على دواء باسم '{name}'. يرجى التحقق من الإملاء أو تقديم المادة الفعالة.",
		},
		"missing_query": {
			"en": "Please provide a medication name or ID.",
			"he": "נא לספק שם תרופה או מזהה.",
			"ru": "Пожалуйста, укажите название лекарства или идентификатор.",
			"ar": "يرجى تقديم اسم الدواء أو المعرّف.",
		},
		"info_not_found": {
			"en": "I couldn't find information about '{query}'. Please check the spelling or try searching by active ingredient.",
			"he": "לא מצאתי מידע על '{query}'. בדוק איות או חפש לפי רכיב פעיל.",
			"ru": "Не удалось найти информацию о '{query}'. Проверьте написание или попробуйте поиск по действующему веществу.",
			"ar": "لم أتمكن من العثور على معلومات حول '{query}'. يرجى التحقق من الإملاء أو البحث بالمادة الفعالة.",
		},
		"info_failed": {
			"en": "I'm having trouble retrieving medication information right now. Please try again later.",
			"he": "קיימת בעיה באחזור מידע על תרופות כרגע. נסה שוב מאוחר יותר.",
			"ru": "Сейчас возникают проблемы с получением информации о лекарстве. Пожалуйста, попробуйте позже.",
			"ar": "أواجه مشكلة في الحصول على معلومات الدواء حالياً. يرجى المحاولة لاحقاً.",
		},
	}

	catalog["inventory"] = category{
		"missing_med_id": {
			"en": "Please provide a medication ID to check stock.",
			"he": "נא לספק מזהה תרופה לבדיקת מלאי.",
			"ru": "Пожалуйста, укажите идентификатор лекарства для проверки наличия.",
			"ar": "يرجى تقديم معرّف الدواء للتحقق من المخزون.",
		},
		"in_stock": {
			"en": "Medication {med_id} is currently in stock.",
			"he": "התרופה {med_id} נמצאת כרגע במלאי.",
			"ru": "Лекарство {med_id} сейчас есть в наличии.",
			"ar": "الدواء {med_id} متوفر حالياً في المخزون.",
		},
		"out_of_stock": {
			"en": "Medication {med_id} is currently out of stock.",
			"he": "התרופה {med_id} אינה במלאי כרגע.",
			"ru": "Лекарства {med_id} сейчас нет в наличии.",
			"ar": "الدواء {med_id} غير متوفر حالياً في المخزون.",
		},
		"timeout": {
			"en": "The stock check is taking too long. Please try again in a moment.",
			"he": "בדיקת המלאי לוקחת יותר מדי זמן. נסה שוב בעוד רגע.",
			"ru": "Проверка наличия занимает слишком много времени. Пожалуйста, попробуйте чуть позже.",
			"ar": "عملية التحقق من المخزون تستغرق وقتاً طويلاً. يرجى المحاولة بعد قليل.",
		},
		"service_unavailable": {
			"en": "I cannot connect to the inventory system right now. Please try again later or contact the pharmacy directly.",
			"he": "לא ניתן להתחבר למערכת המלאי כרגע. נסה שוב מאוחר יותר או פנה לבית המרקחת.",
			"ru": "Не удается подключиться к системе склада. Пожалуйста, попробуйте позже или свяжитесь с аптекой.",
			"ar": "لا يمكنني الاتصال بنظام المخزون حالياً. يرجى المحاولة لاحقاً أو التواصل مع الصيدلية مباشرة.",
		},
		"not_found": {
			"en": "I couldn't find medication {med_id} in our inventory system.",
			"he": "לא מצאתי את התרופה {med_id} במערכת המלאי.",
			"ru": "Не удалось найти лекарство {med_id} в системе склада.",
			"ar": "لم أتمكن من العثور على الدواء {med_id} في نظام المخزون.",
		},
		"http_error": {
			"en": "The inventory system returned an error. Please try again or contact the pharmacy.",
			"he": "מערכת המלאי החזירה שגיאה. נסה שוב או פנה לבית המרקחת.",
			"ru": "Система склада вернула ошибку. Пожалуйста, попробуйте снова или свяжитесь с аптекой.",
			"ar": "أعاد نظام المخزون خطأ. يرجى المحاولة مرة أخرى أو التواصل مع الصيدلية.",
		},
		"invalid_response": {
			"en": "I received an invalid response from the inventory system. Please try again later.",
			"he": "התקבלה תשובה לא תקינה ממערכת המלאי. נסה שוב מאוחר יותר.",
			"ru": "Получен некорректный ответ от системы склада. Пожалуйста, попробуйте позже.",
			"ar": "تلقيت استجابة غير صالحة من نظام المخزون. يرجى المحاولة لاحقاً.",
		},
		"unknown": {
			"en": "An unexpected error occurred while checking stock. Please try again later.",
			"he": "אירעה שגיאה לא צפויה בבדיקת מלאי. נסה שוב מאוחר יותר.",
			"ru": "Произошла непредвиденная ошибка при проверке наличия. Пожалуйста, попробуйте позже.",
			"ar": "حدث خطأ غير متوقع أثناء التحقق من المخزون. يرجى المحاولة لاحقاً.",
		},
	}

	catalog["pharmacy"] = category{
		"missing_location": {
			"en": "Please provide a zip code or city name to find nearby pharmacies.",
			"he": "נא לספק מיקוד או שם עיר כדי למצוא בתי מרקחת קרובים.",
			"ru": "Пожалуйста, укажите индекс или город, чтобы найти ближайшие аптеки.",
			"ar": "يرجى تقديم الرمز البريدي أو اسم المدينة للعثور على صيدليات قريبة.",
		},
		"not_found": {
			"en": "I couldn't find pharmacies in '{searched_location}'. Please provide a nearby city or ZIP code. Available cities: {available}.",
			"he": "לא נמצאו בתי מרקחת ב-'{searched_location}'. נא לציין עיר קרובה או מיקוד. ערים זמינות: {available}.",
			"ru": "Аптеки в '{searched_location}' не найдены. Укажите ближайший город или индекс. Доступные города: {available}.",
			"ar": "لم يتم العثور على صيدليات في '{searched_location}'. يرجى إدخال مدينة قريبة أو الرمز البريدي. المدن المتاحة: {available}.",
		},
		"found": {
			"en": "Found {count} pharmacy locations near you. The nearest is {name} at {address}.",
			"he": "נמצאו {count} בתי מרקחת בקרבתך. הקרוב ביותר הוא {name} בכתובת {address}.",
			"ru": "Найдено {count} аптек поблизости. Ближайшая — {name} по адресу {address}.",
			"ar": "تم العثور على {count} صيدليات بالقرب منك. الأقرب هي {name} على العنوان {address}.",
		},
		"search_failed": {
			"en": "I'm having trouble finding nearby pharmacies right now. Please try again later.",
			"he": "קיימת בעיה במציאת בתי מרקחת קרובים כרגע. נסה שוב מאוחר יותר.",
			"ru": "Сейчас возникают проблемы с поиском ближайших аптек. Пожалуйста, попробуйте позже.",
			"ar": "أواجه مشكلة في العثور على صيدليات قريبة حالياً. يرجى المحاولة لاحقاً.",
		},
	}

	catalog["prescription"] = category{
		"missing_user": {
			"en": "Please log in so I can check your prescriptions.",
			"he": "נא להתחבר כדי שאוכל לבדוק מרשמים.",
			"ru": "Пожалуйста, войдите в систему, чтобы я мог проверить ваши рецепты.",
			"ar": "يرجى تسجيل الدخول حتى أتمكن من التحقق من وصفاتك.",
		},
		"none_active": {
			"en": "No active prescriptions were found.",
			"he": "לא נמצאו מרשמים פעילים.",
			"ru": "Активных рецептов не найдено.",
			"ar": "لم يتم العثور على وصفات نشطة.",
		},
		"none_all": {
			"en": "No prescriptions were found.",
			"he": "לא נמצאו מרשמים.",
			"ru": "Рецептов не найдено.",
			"ar": "لم يتم العثور على وصفات.",
		},
		"found": {
			"en": "Found {count} prescription(s).",
			"he": "נמצאו {count} מרשמים.",
			"ru": "Найдено {count} рецептов.",
			"ar": "تم العثور على {count} وصفات.",
		},
		"failed": {
			"en": "I'm having trouble retrieving prescriptions right now. Please try again later.",
			"he": "קיימת בעיה בגישה למרשמים כרגע. נסה שוב מאוחר יותר.",
			"ru": "Сейчас не удается получить рецепты. Пожалуйста, попробуйте позже.",
			"ar": "أواجه مشكلة في استرجاع الوصفات الآن. يرجى المحاولة لاحقًا.",
		},
	}

	catalog["handling"] = category{
		"missing_med_id": {
			"en": "Please provide a medication ID.",
			"he": "נא לספק מזהה תרופה.",
			"ru": "Пожалуйста, укажите идентификатор лекарства.",
			"ar": "يرجى تقديم معرّف الدواء.",
		},
		"not_found": {
			"en": "I couldn't find medication {med_id} in our system.",
			"he": "לא מצאתי את התרופה {med_id} במערכת שלנו.",
			"ru": "Не удалось найти лекарство {med_id} в нашей системе.",
			"ar": "لم أتمكن من العثور على الدواء {med_id} في نظامنا.",
		},
		"retrieval_failed": {
			"en": "I'm having trouble retrieving handling information right now. Please try again later.",
			"he": "קיימת בעיה באחזור מידע על טיפול כרגע. נסה שוב מאוחר יותר.",
			"ru": "Сейчас возникают проблемы с получением информации о хранении. Пожалуйста, попробуйте позже.",
			"ar": "أواجه مشكلة في الحصول على معلومات التعامل حالياً. يرجى المحاولة لاحقاً.",
		},
		"storage": {
			"en": "Store at room temperature away from light and moisture.",
			"he": "יש לאחסן בטמפרטורת החדר, הרחק מאור ולחות.",
			"ru": "Хранить при комнатной температуре, вдали от света и влаги.",
			"ar": "يُحفظ في درجة حرارة الغرفة بعيداً عن الضوء والرطوبة.",
		},
		"child_safety": {
			"en": "Keep out of reach of children and pets.",
			"he": "יש להרחיק מהישג ידם של ילדים וחיות מחמד.",
			"ru": "Хранить в недоступном для детей и животных месте.",
			"ar": "يُحفظ بعيداً عن متناول الأطفال والحيوانات الأليفة.",
		},
		"prescription": {
			"en": "Prescription medication - use only as directed by your healthcare provider.",
			"he": "תרופת מרשם - להשתמש רק לפי הנחיות איש מקצוע.",
			"ru": "Рецептурный препарат — используйте только по назначению специалиста.",
			"ar": "دواء بوصفة طبية - يُستخدم فقط حسب توجيهات مقدم الرعاية الصحية.",
		},
		"message": {
			"en": "This information is from the medication label. For personalized medical advice, consult your doctor or pharmacist.",
			"he": "מידע זה מבוסס על תווית התרופה. לייעוץ רפואי אישי יש לפנות לרופא או רוקח.",
			"ru": "Эта информация взята с этикетки препарата. За персональной консультацией обратитесь к врачу или фармацевту.",
			"ar": "هذه المعلومات من ملصق الدواء. للحصول على نصيحة طبية شخصية، استشر الطبيب أو الصيدلي.",
		},
	}

	catalog["safety"] = category{
		"refusal_base": {
			"en": "I can't provide medical advice, diagnosis, or recommendations. Please consult a licensed pharmacist or doctor.",
			"he": "אני לא יכול/ה לספק ייעוץ רפואי, אבחון או המלצות. נא לפנות לרופא או רוקח מורשה.",
			"ru": "Я не могу предоставлять медицинские советы, диагнозы или рекомендации. Пожалуйста, обратитесь к врачу или лицензированному фармацевту.",
			"ar": "لا أستطيع تقديم نصيحة طبية أو تشخيص أو توصيات. يرجى استشارة طبيب أو صيدلي مرخص.",
		},
		"refusal_suffix": {
			"en": "(request blocked: {reason}).",
			"he": "(הבקשה נחסמה: {reason}).",
			"ru": "(запрос заблокирован: {reason}).",
			"ar": "(تم حظر الطلب: {reason}).",
		},
	}

	catalog["general"] = category{
		"ambiguous_match": {
			"en": "I found multiple possible matches: {options}. Which one did you mean?",
			"he": "מצאתי מספר התאמות אפשריות: {options}. לאיזו תרופה התכוונת?",
			"ru": "Я нашел несколько возможных совпадений: {options}. Какой препарат вы имели в виду?",
			"ar": "وجدت عدة مطابقات محتملة: {options}. أي دواء تقصد؟",
		},
	}

	catalog["errors"] = category{
		"malformed_arguments": {
			"en": "I couldn't understand the details of that request. Please rephrase it.",
			"he": "לא הצלחתי להבין את פרטי הבקשה. נא לנסח מחדש.",
			"ru": "Мне не удалось разобрать детали запроса. Пожалуйста, переформулируйте.",
			"ar": "لم أتمكن من فهم تفاصيل هذا الطلب. يرجى إعادة الصياغة.",
		},
		"missing_required_argument": {
			"en": "Please provide the required information ({param}) to complete this request.",
			"he": "נא לספק את המידע הנדרש ({param}) כדי להשלים את הבקשה.",
			"ru": "Пожалуйста, укажите необходимые данные ({param}) для выполнения запроса.",
			"ar": "يرجى تقديم المعلومات المطلوبة ({param}) لإكمال هذا الطلب.",
		},
		"invalid_argument": {
			"en": "The value given for {param} is not valid ({constraint}).",
			"he": "הערך שניתן עבור {param} אינו תקין ({constraint}).",
			"ru": "Указанное значение {param} недопустимо ({constraint}).",
			"ar": "القيمة المقدمة لـ {param} غير صالحة ({constraint}).",
		},
		"unknown_tool": {
			"en": "I encountered an internal error. Please try again or contact support.",
			"he": "אירעה שגיאה פנימית. נסה שוב או פנה לתמיכה.",
			"ru": "Произошла внутренняя ошибка. Попробуйте снова или обратитесь в поддержку.",
			"ar": "حدث خطأ داخلي. يرجى المحاولة مرة أخرى أو التواصل مع الدعم.",
		},
		"tool_timeout": {
			"en": "That lookup is taking too long. Please try again in a moment.",
			"he": "הבדיקה לוקחת יותר מדי זמן. נסה שוב בעוד רגע.",
			"ru": "Запрос выполняется слишком долго. Пожалуйста, попробуйте чуть позже.",
			"ar": "تستغرق هذه العملية وقتاً طويلاً. يرجى المحاولة بعد قليل.",
		},
		"internal_error": {
			"en": "I encountered an unexpected error while processing your request. Please try again.",
			"he": "אירעה שגיאה לא צפויה בעיבוד הבקשה. נסה שוב.",
			"ru": "Произошла непредвиденная ошибка при обработке запроса. Попробуйте снова.",
			"ar": "حدث خطأ غير متوقع أثناء معالجة طلبك. يرجى المحاولة مرة أخرى.",
		},
		"turn_budget_exceeded": {
			"en": "I wasn't able to complete that request. Please try asking in a different way.",
			"he": "לא הצלחתי להשלים את הבקשה. נסה לנסח אותה אחרת.",
			"ru": "Мне не удалось выполнить этот запрос. Попробуйте сформулировать его иначе.",
			"ar": "لم أتمكن من إكمال هذا الطلب. حاول صياغته بطريقة أخرى.",
		},
		"backend_unreachable": {
			"en": "The assistant is unavailable right now. Please try again later.",
			"he": "העוזר אינו זמין כרגע. נסה שוב מאוחר יותר.",
			"ru": "Ассистент сейчас недоступен. Пожалуйста, попробуйте позже.",
			"ar": "المساعد غير متاح حالياً. يرجى المحاولة لاحقاً.",
		},
	}
}

// Get returns the message for category/key in lang, falling back to English
// when the key has no translation. Unknown keys return an empty string.
func Get(cat, key, lang string, args Args) string {
	keys, ok := catalog[cat]
	if !ok {
		return ""
	}
	e, ok := keys[key]
	if !ok {
		return ""
	}
	text, ok := e[lang]
	if !ok || text == "" {
		text = e[LangEnglish]
	}
	return interpolate(text, args)
}

func interpolate(text string, args Args) string {
	if len(args) == 0 {
		return text
	}
	for k, v := range args {
		text = strings.ReplaceAll(text, "{"+k+"}", fmt.Sprint(v))
	}
	return text
}
